package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents the owning account readings are attributed to
type User struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	CreatedAt time.Time
}

// MeteringPoint represents a metering point keyed by GSRN
type MeteringPoint struct {
	GSRN      string
	UserID    uuid.UUID
	Name      *string
	CreatedAt time.Time
}

// MeterReading represents a single 15-minute interval reading.
// (MeteringPointID, ReadingTypeCode, Timestamp) is unique; a reading is
// never updated after creation.
type MeterReading struct {
	ID              uuid.UUID
	Timestamp       time.Time
	Value           decimal.Decimal
	ReadingTypeCode string
	Quality         []byte // opaque JSON array of reading qualities, stored as-is
	MeteringPointID string
	UserID          uuid.UUID
}
