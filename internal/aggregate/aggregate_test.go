package aggregate_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matija2209/home-energy-dashboard/internal/aggregate"
	"github.com/matija2209/home-energy-dashboard/internal/db"
)

func reading(ts time.Time, value string, point string, code string) db.MeterReading {
	return db.MeterReading{
		Timestamp:       ts,
		Value:           decimal.RequireFromString(value),
		MeteringPointID: point,
		ReadingTypeCode: code,
	}
}

func TestAggregate_HourSumIsExact(t *testing.T) {
	base := time.Date(2025, 4, 11, 10, 0, 0, 0, time.UTC)
	readings := []db.MeterReading{
		reading(base, "0.1", "P1", "consumption"),
		reading(base.Add(15*time.Minute), "0.2", "P1", "consumption"),
		reading(base.Add(30*time.Minute), "0.3", "P1", "consumption"),
	}

	points := aggregate.Aggregate(readings, aggregate.GranularityHour)

	if len(points) != 1 {
		t.Fatalf("Expected 1 aggregated point, got %d", len(points))
	}
	if got := points[0].Value.String(); got != "0.6" {
		t.Errorf("Expected exact sum 0.6, got %s", got)
	}
	if !points[0].Timestamp.Equal(base) {
		t.Errorf("Expected bucket start %v, got %v", base, points[0].Timestamp)
	}
}

func TestAggregate_15MinPassThroughPreservesOrder(t *testing.T) {
	base := time.Date(2025, 4, 11, 10, 0, 0, 0, time.UTC)
	readings := []db.MeterReading{
		reading(base.Add(30*time.Minute), "0.3", "P1", "consumption"),
		reading(base, "0.1", "P1", "consumption"),
		reading(base.Add(15*time.Minute), "0.2", "P1", "consumption"),
	}

	points := aggregate.Aggregate(readings, aggregate.Granularity15Min)

	if len(points) != len(readings) {
		t.Fatalf("Expected %d points, got %d", len(readings), len(points))
	}
	for i := range readings {
		if !points[i].Timestamp.Equal(readings[i].Timestamp) {
			t.Errorf("Point %d: expected timestamp %v, got %v", i, readings[i].Timestamp, points[i].Timestamp)
		}
		if !points[i].Value.Equal(readings[i].Value) {
			t.Errorf("Point %d: expected value %s, got %s", i, readings[i].Value, points[i].Value)
		}
	}
}

func TestAggregate_DayBoundarySplitsWeekKeeps(t *testing.T) {
	// Friday 23:59 and Saturday 00:01: different days, same Sunday-start week
	friday := time.Date(2025, 4, 11, 23, 59, 0, 0, time.UTC)
	saturday := time.Date(2025, 4, 12, 0, 1, 0, 0, time.UTC)
	readings := []db.MeterReading{
		reading(friday, "1", "P1", "consumption"),
		reading(saturday, "2", "P1", "consumption"),
	}

	dayPoints := aggregate.Aggregate(readings, aggregate.GranularityDay)
	if len(dayPoints) != 2 {
		t.Fatalf("Expected 2 day buckets, got %d", len(dayPoints))
	}

	weekPoints := aggregate.Aggregate(readings, aggregate.GranularityWeek)
	if len(weekPoints) != 1 {
		t.Fatalf("Expected 1 week bucket, got %d", len(weekPoints))
	}

	weekStart := time.Date(2025, 4, 6, 0, 0, 0, 0, time.UTC) // preceding Sunday
	if !weekPoints[0].Timestamp.Equal(weekStart) {
		t.Errorf("Expected week bucket %v, got %v", weekStart, weekPoints[0].Timestamp)
	}
	if got := weekPoints[0].Value.String(); got != "3" {
		t.Errorf("Expected week sum 3, got %s", got)
	}
}

func TestAggregate_WeekRollsIntoPreviousMonth(t *testing.T) {
	// Thursday 2025-05-01 belongs to the week starting Sunday 2025-04-27
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	points := aggregate.Aggregate([]db.MeterReading{
		reading(ts, "1", "P1", "consumption"),
	}, aggregate.GranularityWeek)

	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	expected := time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC)
	if !points[0].Timestamp.Equal(expected) {
		t.Errorf("Expected week bucket %v, got %v", expected, points[0].Timestamp)
	}
}

func TestAggregate_WeekRollsIntoPreviousYear(t *testing.T) {
	// Thursday 2026-01-01 belongs to the week starting Sunday 2025-12-28
	ts := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	points := aggregate.Aggregate([]db.MeterReading{
		reading(ts, "1", "P1", "consumption"),
	}, aggregate.GranularityWeek)

	expected := time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC)
	if !points[0].Timestamp.Equal(expected) {
		t.Errorf("Expected week bucket %v, got %v", expected, points[0].Timestamp)
	}
}

func TestAggregate_MonthBucket(t *testing.T) {
	readings := []db.MeterReading{
		reading(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), "1.5", "P1", "consumption"),
		reading(time.Date(2025, 4, 30, 23, 45, 0, 0, time.UTC), "2.5", "P1", "consumption"),
		reading(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "4", "P1", "consumption"),
	}

	points := aggregate.Aggregate(readings, aggregate.GranularityMonth)

	if len(points) != 2 {
		t.Fatalf("Expected 2 month buckets, got %d", len(points))
	}
	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !points[0].Timestamp.Equal(april) {
		t.Errorf("Expected first bucket %v, got %v", april, points[0].Timestamp)
	}
	if got := points[0].Value.String(); got != "4" {
		t.Errorf("Expected April sum 4, got %s", got)
	}
}

func TestAggregate_GroupsPerMeteringPointAndReadingType(t *testing.T) {
	ts := time.Date(2025, 4, 11, 10, 0, 0, 0, time.UTC)
	readings := []db.MeterReading{
		reading(ts, "1", "P1", "consumption"),
		reading(ts.Add(15*time.Minute), "2", "P2", "consumption"),
		reading(ts.Add(30*time.Minute), "4", "P1", "production"),
	}

	points := aggregate.Aggregate(readings, aggregate.GranularityHour)

	if len(points) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(points))
	}
}

func TestAggregate_SinglePartialBucketStillReported(t *testing.T) {
	ts := time.Date(2025, 4, 11, 10, 15, 0, 0, time.UTC)
	points := aggregate.Aggregate([]db.MeterReading{
		reading(ts, "0.25", "P1", "consumption"),
	}, aggregate.GranularityDay)

	if len(points) != 1 {
		t.Fatalf("Expected partial bucket to be reported, got %d points", len(points))
	}
	if got := points[0].Value.String(); got != "0.25" {
		t.Errorf("Expected partial sum 0.25, got %s", got)
	}
}

func TestGranularity_IsValid(t *testing.T) {
	valid := []aggregate.Granularity{"15min", "hour", "day", "week", "month"}
	for _, g := range valid {
		if !g.IsValid() {
			t.Errorf("Expected %q to be valid", g)
		}
	}
	if aggregate.Granularity("year").IsValid() {
		t.Error("Expected 'year' to be invalid")
	}
}
