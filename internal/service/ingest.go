package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/metrics"
	"github.com/matija2209/home-energy-dashboard/internal/mojelektro"
	"github.com/matija2209/home-energy-dashboard/internal/mq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReadingSource fetches interval readings from the remote metering-data API
type ReadingSource interface {
	GetMeterReadings(ctx context.Context, params mojelektro.GetMeterReadingsParams) (*mojelektro.MeterReadings, error)
}

// IngestStore is the slice of the repository the ingestion loop writes through
type IngestStore interface {
	GetOrCreateUser(ctx context.Context, email string, name *string) (*db.User, error)
	GetOrCreateMeteringPoint(ctx context.Context, gsrn string, userID uuid.UUID) (*db.MeteringPoint, error)
	InsertReadings(ctx context.Context, readings []db.MeterReading) (int64, error)
}

// EventPublisher publishes an event per successfully persisted day
type EventPublisher interface {
	PublishIngestedEvent(ctx context.Context, event mq.IngestedEvent) error
}

// DayStatus classifies the outcome of one day of the ingestion loop
type DayStatus string

const (
	DayOK     DayStatus = "ok"     // readings fetched and persisted
	DayEmpty  DayStatus = "empty"  // remote had no matching readings, not an error
	DayFailed DayStatus = "failed" // fetch or store failed, loop continued
)

// DayResult is the typed per-day outcome of an ingestion run
type DayResult struct {
	Date     time.Time
	Status   DayStatus
	Inserted int64
	Err      error
}

// Summary aggregates the per-day results of one ingestion run
type Summary struct {
	Days     []DayResult
	Inserted int64
	Empty    int
	Failed   int
}

// IngestRequest describes one ingestion run. EndDate defaults to today
// when zero.
type IngestRequest struct {
	GSRN            string
	ReadingTypeCode string
	SeedUserEmail   string
	StartDate       time.Time
	EndDate         time.Time
}

// IngestService drives the day-by-day ingestion loop: one remote fetch per
// day, skip-on-duplicate persistence, per-day failure isolation.
type IngestService struct {
	source     ReadingSource
	store      IngestStore
	publisher  EventPublisher
	fetchDelay time.Duration
	logger     *zap.Logger
}

// NewIngestService creates an ingestion service. publisher may be nil when
// no broker is configured.
func NewIngestService(
	source ReadingSource,
	store IngestStore,
	publisher EventPublisher,
	fetchDelay time.Duration,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		source:     source,
		store:      store,
		publisher:  publisher,
		fetchDelay: fetchDelay,
		logger:     logger,
	}
}

// Run executes one ingestion run over [StartDate, EndDate] inclusive.
// A fetch or store failure for one day is recorded in the summary and does
// not abort the loop; only failing to resolve the owning user or metering
// point before the loop is fatal.
func (s *IngestService) Run(ctx context.Context, req IngestRequest) (Summary, error) {
	seedName := "Seed User"
	user, err := s.store.GetOrCreateUser(ctx, req.SeedUserEmail, &seedName)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to resolve owning user: %w", err)
	}

	point, err := s.store.GetOrCreateMeteringPoint(ctx, req.GSRN, user.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to resolve metering point: %w", err)
	}

	start := truncateToDay(req.StartDate)
	end := req.EndDate
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = truncateToDay(end)

	s.logger.Info("starting ingestion run",
		zap.String("gsrn", point.GSRN),
		zap.String("reading_type", req.ReadingTypeCode),
		zap.String("from", start.Format("2006-01-02")),
		zap.String("to", end.Format("2006-01-02")),
	)

	var summary Summary
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		result := s.ingestDay(ctx, user.ID, point.GSRN, req.ReadingTypeCode, day)
		summary.Days = append(summary.Days, result)

		switch result.Status {
		case DayOK:
			summary.Inserted += result.Inserted
			metrics.ReadingsIngested.Add(float64(result.Inserted))
		case DayEmpty:
			summary.Empty++
		case DayFailed:
			summary.Failed++
			metrics.IngestDayFailures.Inc()
			s.logger.Error("day ingestion failed, continuing",
				zap.String("date", day.Format("2006-01-02")),
				zap.Error(result.Err),
			)
		}

		// Fixed pause between day fetches to stay under the remote API's
		// implicit rate limits. Deliberately not adaptive.
		if day.Before(end) {
			time.Sleep(s.fetchDelay)
		}
	}

	s.logger.Info("ingestion run finished",
		zap.Int("days", len(summary.Days)),
		zap.Int64("inserted", summary.Inserted),
		zap.Int("empty", summary.Empty),
		zap.Int("failed", summary.Failed),
	)

	return summary, nil
}

// ingestDay fetches and persists one day's window [day, day+1)
func (s *IngestService) ingestDay(ctx context.Context, userID uuid.UUID, gsrn, readingTypeCode string, day time.Time) DayResult {
	startTime := day.Format("2006-01-02")
	endTime := day.AddDate(0, 0, 1).Format("2006-01-02")

	resp, err := s.source.GetMeterReadings(ctx, mojelektro.GetMeterReadingsParams{
		UsagePoint: gsrn,
		StartTime:  startTime,
		EndTime:    endTime,
		Options:    []string{"ReadingType=" + readingTypeCode},
	})
	if err != nil {
		return DayResult{Date: day, Status: DayFailed, Err: err}
	}

	candidates := s.transform(resp, userID, gsrn, readingTypeCode)
	if len(candidates) == 0 {
		s.logger.Debug("no readings for day", zap.String("date", startTime))
		return DayResult{Date: day, Status: DayEmpty}
	}

	inserted, err := s.store.InsertReadings(ctx, candidates)
	if err != nil {
		return DayResult{Date: day, Status: DayFailed, Err: err}
	}

	s.logger.Info("day ingested",
		zap.String("date", startTime),
		zap.Int("fetched", len(candidates)),
		zap.Int64("inserted", inserted),
	)

	if s.publisher != nil {
		event := mq.IngestedEvent{
			GSRN:            gsrn,
			Date:            startTime,
			ReadingTypeCode: readingTypeCode,
			Inserted:        inserted,
		}
		if err := s.publisher.PublishIngestedEvent(ctx, event); err != nil {
			// Event delivery is best effort, the readings are already committed
			s.logger.Error("failed to publish ingest event", zap.Error(err))
		}
	}

	return DayResult{Date: day, Status: DayOK, Inserted: inserted}
}

// transform picks the interval block matching the requested reading type and
// converts its well-formed entries into reading candidates. Entries missing
// a timestamp or value, or carrying an unparseable value, are dropped.
func (s *IngestService) transform(resp *mojelektro.MeterReadings, userID uuid.UUID, gsrn, readingTypeCode string) []db.MeterReading {
	if resp == nil {
		return nil
	}

	var block *mojelektro.IntervalBlock
	for i := range resp.IntervalBlocks {
		if resp.IntervalBlocks[i].ReadingType == readingTypeCode {
			block = &resp.IntervalBlocks[i]
			break
		}
	}
	if block == nil {
		return nil
	}

	candidates := make([]db.MeterReading, 0, len(block.IntervalReadings))
	for _, entry := range block.IntervalReadings {
		if entry.Timestamp == nil || entry.Value == nil {
			continue
		}
		value, err := decimal.NewFromString(*entry.Value)
		if err != nil {
			continue
		}
		candidates = append(candidates, db.MeterReading{
			Timestamp:       entry.Timestamp.UTC(),
			Value:           value,
			ReadingTypeCode: readingTypeCode,
			Quality:         entry.ReadingQualities,
			MeteringPointID: gsrn,
			UserID:          userID,
		})
	}

	return candidates
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
