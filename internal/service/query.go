package service

import (
	"context"
	"fmt"
	"time"

	"github.com/matija2209/home-energy-dashboard/internal/aggregate"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/metrics"
	"github.com/matija2209/home-energy-dashboard/internal/repository"
	"go.uber.org/zap"
)

// AllMeteringPoints disables the metering-point filter
const AllMeteringPoints = "all"

// defaultQueryWindow is the range used when the caller omits from/to
const defaultQueryWindow = 7 * 24 * time.Hour

// QueryStore is the slice of the repository the query façade reads through
type QueryStore interface {
	ListReadings(ctx context.Context, filter repository.ReadingFilter) ([]db.MeterReading, error)
	ListMeteringPoints(ctx context.Context) ([]db.MeteringPoint, error)
	ListReadingTypes(ctx context.Context) ([]string, error)
}

// Filter is the caller-provided view over the reading store. Zero From/To
// default to the last seven days; MeteringPoint "all" or empty means no
// metering-point filter.
type Filter struct {
	From          time.Time
	To            time.Time
	MeteringPoint string
	ReadingType   string
	Granularity   aggregate.Granularity
}

// QueryService applies filters, reads raw rows in ascending timestamp order
// and routes them through the aggregation engine.
type QueryService struct {
	store  QueryStore
	logger *zap.Logger
}

// NewQueryService creates a query service
func NewQueryService(store QueryStore, logger *zap.Logger) *QueryService {
	return &QueryService{store: store, logger: logger}
}

// Readings returns aggregated points for the filter. Errors are returned to
// the caller so the API boundary can answer with an explicit error response
// instead of silently serving partial data.
func (s *QueryService) Readings(ctx context.Context, filter Filter) ([]aggregate.Point, error) {
	granularity := filter.Granularity
	if granularity == "" {
		granularity = aggregate.GranularityDay
	}
	if !granularity.IsValid() {
		return nil, fmt.Errorf("unsupported aggregation %q", granularity)
	}

	from := filter.From
	to := filter.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultQueryWindow)
	}

	meteringPoint := filter.MeteringPoint
	if meteringPoint == AllMeteringPoints {
		meteringPoint = ""
	}

	readings, err := s.store.ListReadings(ctx, repository.ReadingFilter{
		From:            from,
		To:              to,
		MeteringPointID: meteringPoint,
		ReadingTypeCode: filter.ReadingType,
	})
	if err != nil {
		metrics.ReadingsQueries.WithLabelValues("error").Inc()
		s.logger.Error("failed to list readings", zap.Error(err))
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	points := aggregate.Aggregate(readings, granularity)
	metrics.ReadingsQueries.WithLabelValues("ok").Inc()

	return points, nil
}

// MeteringPoints returns all known metering points for filter widgets
func (s *QueryService) MeteringPoints(ctx context.Context) ([]db.MeteringPoint, error) {
	points, err := s.store.ListMeteringPoints(ctx)
	if err != nil {
		s.logger.Error("failed to list metering points", zap.Error(err))
		return nil, fmt.Errorf("failed to list metering points: %w", err)
	}
	return points, nil
}

// ReadingTypes returns the distinct reading-type codes present in the store
func (s *QueryService) ReadingTypes(ctx context.Context) ([]string, error) {
	codes, err := s.store.ListReadingTypes(ctx)
	if err != nil {
		s.logger.Error("failed to list reading types", zap.Error(err))
		return nil, fmt.Errorf("failed to list reading types: %w", err)
	}
	return codes, nil
}
