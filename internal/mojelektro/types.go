package mojelektro

import (
	"encoding/json"
	"time"
)

// MeterReadings is the response of GET /meter-readings: one interval block
// per reading type, each holding the individual interval readings.
type MeterReadings struct {
	UsagePoint     string          `json:"usagePoint"`
	IntervalBlocks []IntervalBlock `json:"intervalBlocks"`
}

// IntervalBlock groups interval readings tagged with one reading-type code
type IntervalBlock struct {
	ReadingType      string            `json:"readingType"`
	IntervalReadings []IntervalReading `json:"intervalReadings"`
}

// IntervalReading is a single time-stamped measurement. Timestamp and Value
// are pointers because the API occasionally returns entries without them;
// such entries are dropped during ingestion.
type IntervalReading struct {
	Timestamp        *time.Time      `json:"timestamp"`
	Value            *string         `json:"value"`
	ReadingQualities json.RawMessage `json:"readingQualities,omitempty"`
}

// ReadingType describes one entry of GET /reading-type
type ReadingType struct {
	ReadingType string `json:"readingType"`
	Description string `json:"description,omitempty"`
}

// ReadingTypes is the response of GET /reading-type
type ReadingTypes struct {
	ReadingTypes []ReadingType `json:"readingTypes"`
}

// MeteringPointInfo is the contractual data of GET /merilna-tocka/{gsrn}
type MeteringPointInfo struct {
	GSRN        string `json:"gsrn"`
	Description string `json:"opis,omitempty"`
}

// apiError is the common error payload returned by the API
type apiError struct {
	Koda string `json:"koda"`
	Opis string `json:"opis"`
}
