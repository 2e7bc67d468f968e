package aggregate

import (
	"time"

	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/shopspring/decimal"
)

// Granularity selects the calendar bucket readings are grouped into
type Granularity string

const (
	Granularity15Min Granularity = "15min"
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// IsValid reports whether g is a supported granularity
func (g Granularity) IsValid() bool {
	switch g {
	case Granularity15Min, GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Point is one aggregated value: the sum of all readings of one metering
// point and reading type that fall into one calendar bucket. Points are
// computed per query and never persisted.
type Point struct {
	Timestamp       time.Time
	Value           decimal.Decimal
	MeteringPointID string
	ReadingTypeCode string
}

type groupKey struct {
	bucket          time.Time
	meteringPointID string
	readingTypeCode string
}

// Aggregate groups readings into calendar-aligned buckets per metering point
// and reading type, summing the values of each group in decimal arithmetic.
// Values are summed rather than averaged: a reading is accumulated
// consumption over its interval, not an instantaneous sample.
//
// The 15min granularity is an identity pass-through preserving input order.
// For other granularities points are returned in first-encounter order, so
// the output is deterministic for a fixed input sequence, but callers must
// not rely on any particular ordering.
func Aggregate(readings []db.MeterReading, granularity Granularity) []Point {
	if granularity == Granularity15Min {
		points := make([]Point, 0, len(readings))
		for _, r := range readings {
			points = append(points, Point{
				Timestamp:       r.Timestamp,
				Value:           r.Value,
				MeteringPointID: r.MeteringPointID,
				ReadingTypeCode: r.ReadingTypeCode,
			})
		}
		return points
	}

	groups := make(map[groupKey]int)
	points := make([]Point, 0)

	for _, r := range readings {
		key := groupKey{
			bucket:          BucketStart(r.Timestamp, granularity),
			meteringPointID: r.MeteringPointID,
			readingTypeCode: r.ReadingTypeCode,
		}

		if idx, ok := groups[key]; ok {
			points[idx].Value = points[idx].Value.Add(r.Value)
			continue
		}

		groups[key] = len(points)
		points = append(points, Point{
			Timestamp:       key.bucket,
			Value:           r.Value,
			MeteringPointID: r.MeteringPointID,
			ReadingTypeCode: r.ReadingTypeCode,
		})
	}

	return points
}

// BucketStart returns the calendar-aligned bucket start for a timestamp,
// computed from the timestamp's own calendar fields and location.
//
// The week bucket starts on the preceding (or same) Sunday. This is the
// convention of the source data provider, not ISO-8601; time.Date handles
// the rollover into the previous month or year when the subtraction goes
// below day one.
func BucketStart(t time.Time, granularity Granularity) time.Time {
	switch granularity {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case GranularityWeek:
		return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}
