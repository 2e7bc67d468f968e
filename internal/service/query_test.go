package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/matija2209/home-energy-dashboard/internal/aggregate"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/matija2209/home-energy-dashboard/internal/repository"
	"github.com/matija2209/home-energy-dashboard/internal/service"
)

type fakeQueryStore struct {
	readings   []db.MeterReading
	lastFilter repository.ReadingFilter
	listErr    error
}

func (f *fakeQueryStore) ListReadings(ctx context.Context, filter repository.ReadingFilter) ([]db.MeterReading, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.readings, nil
}

func (f *fakeQueryStore) ListMeteringPoints(ctx context.Context) ([]db.MeteringPoint, error) {
	return []db.MeteringPoint{{GSRN: "P1"}}, nil
}

func (f *fakeQueryStore) ListReadingTypes(ctx context.Context) ([]string, error) {
	return []string{"consumption"}, nil
}

func TestQuery_DefaultsToLastSevenDays(t *testing.T) {
	store := &fakeQueryStore{}
	svc := service.NewQueryService(store, zap.NewNop())

	before := time.Now().UTC()
	_, err := svc.Readings(context.Background(), service.Filter{Granularity: aggregate.GranularityDay})
	if err != nil {
		t.Fatalf("Readings failed: %v", err)
	}

	window := store.lastFilter.To.Sub(store.lastFilter.From)
	if window != 7*24*time.Hour {
		t.Errorf("Expected a 7-day default window, got %v", window)
	}
	if store.lastFilter.To.Before(before.Add(-time.Minute)) {
		t.Errorf("Expected default 'to' near now, got %v", store.lastFilter.To)
	}
}

func TestQuery_AllMeansNoMeteringPointFilter(t *testing.T) {
	store := &fakeQueryStore{}
	svc := service.NewQueryService(store, zap.NewNop())

	_, err := svc.Readings(context.Background(), service.Filter{
		MeteringPoint: "all",
		Granularity:   aggregate.GranularityDay,
	})
	if err != nil {
		t.Fatalf("Readings failed: %v", err)
	}

	if store.lastFilter.MeteringPointID != "" {
		t.Errorf("Expected empty metering point filter, got %q", store.lastFilter.MeteringPointID)
	}
}

func TestQuery_PassesMeteringPointFilterThrough(t *testing.T) {
	store := &fakeQueryStore{}
	svc := service.NewQueryService(store, zap.NewNop())

	_, err := svc.Readings(context.Background(), service.Filter{
		MeteringPoint: "P1",
		ReadingType:   "consumption",
		Granularity:   aggregate.Granularity15Min,
	})
	if err != nil {
		t.Fatalf("Readings failed: %v", err)
	}

	if store.lastFilter.MeteringPointID != "P1" {
		t.Errorf("Expected metering point filter P1, got %q", store.lastFilter.MeteringPointID)
	}
	if store.lastFilter.ReadingTypeCode != "consumption" {
		t.Errorf("Expected reading type filter consumption, got %q", store.lastFilter.ReadingTypeCode)
	}
}

func TestQuery_AggregatesThroughEngine(t *testing.T) {
	base := time.Date(2025, 4, 11, 10, 0, 0, 0, time.UTC)
	store := &fakeQueryStore{
		readings: []db.MeterReading{
			{Timestamp: base, Value: decimal.RequireFromString("0.2"), MeteringPointID: "P1", ReadingTypeCode: "consumption"},
			{Timestamp: base.Add(15 * time.Minute), Value: decimal.RequireFromString("0.3"), MeteringPointID: "P1", ReadingTypeCode: "consumption"},
		},
	}
	svc := service.NewQueryService(store, zap.NewNop())

	points, err := svc.Readings(context.Background(), service.Filter{
		From:        base.Add(-time.Hour),
		To:          base.Add(time.Hour),
		Granularity: aggregate.GranularityHour,
	})
	if err != nil {
		t.Fatalf("Readings failed: %v", err)
	}

	if len(points) != 1 {
		t.Fatalf("Expected 1 aggregated point, got %d", len(points))
	}
	if got := points[0].Value.String(); got != "0.5" {
		t.Errorf("Expected summed value 0.5, got %s", got)
	}
}

func TestQuery_RejectsUnknownGranularity(t *testing.T) {
	svc := service.NewQueryService(&fakeQueryStore{}, zap.NewNop())

	_, err := svc.Readings(context.Background(), service.Filter{Granularity: "fortnight"})
	if err == nil {
		t.Fatal("Expected error for unsupported aggregation")
	}
}

func TestQuery_PropagatesStoreError(t *testing.T) {
	store := &fakeQueryStore{listErr: errors.New("store unreachable")}
	svc := service.NewQueryService(store, zap.NewNop())

	_, err := svc.Readings(context.Background(), service.Filter{Granularity: aggregate.GranularityDay})
	if err == nil {
		t.Fatal("Expected store error to be returned to the caller")
	}
}
