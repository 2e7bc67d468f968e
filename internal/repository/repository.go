package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/matija2209/home-energy-dashboard/internal/db"
	"github.com/shopspring/decimal"
)

// Tx is an alias for pgx.Tx
type Tx = pgx.Tx

// ReadingFilter narrows ListReadings to a time range and optional
// metering point / reading type. Zero time values mean "unbounded".
type ReadingFilter struct {
	From            time.Time
	To              time.Time
	MeteringPointID string // empty = all metering points
	ReadingTypeCode string // empty = all reading types
}

// Repository handles database operations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreateUser retrieves or creates the owning account by email
func (r *Repository) GetOrCreateUser(ctx context.Context, email string, name *string) (*db.User, error) {
	query := `
		SELECT id, email, name, created_at
		FROM users
		WHERE email = $1
	`

	var user db.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
	)
	if err == nil {
		return &user, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	insertQuery := `
		INSERT INTO users (id, email, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, created_at
	`

	err = r.pool.QueryRow(ctx, insertQuery, uuid.New(), email, name, time.Now().UTC()).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetOrCreateMeteringPoint retrieves a metering point by GSRN, creating it
// linked to the owning user on first encounter
func (r *Repository) GetOrCreateMeteringPoint(ctx context.Context, gsrn string, userID uuid.UUID) (*db.MeteringPoint, error) {
	query := `
		SELECT gsrn, user_id, name, created_at
		FROM metering_points
		WHERE gsrn = $1
	`

	var point db.MeteringPoint
	err := r.pool.QueryRow(ctx, query, gsrn).Scan(
		&point.GSRN,
		&point.UserID,
		&point.Name,
		&point.CreatedAt,
	)
	if err == nil {
		return &point, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to query metering point: %w", err)
	}

	defaultName := defaultPointName(gsrn)
	insertQuery := `
		INSERT INTO metering_points (gsrn, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING gsrn, user_id, name, created_at
	`

	err = r.pool.QueryRow(ctx, insertQuery, gsrn, userID, defaultName, time.Now().UTC()).Scan(
		&point.GSRN,
		&point.UserID,
		&point.Name,
		&point.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metering point: %w", err)
	}

	return &point, nil
}

// RenameMeteringPoint sets the display name of a metering point
func (r *Repository) RenameMeteringPoint(ctx context.Context, gsrn string, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE metering_points SET name = $1 WHERE gsrn = $2`, name, gsrn)
	if err != nil {
		return fmt.Errorf("failed to rename metering point: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("metering point %s not found", gsrn)
	}
	return nil
}

// InsertReadings bulk-inserts meter readings with skip-on-duplicate
// semantics keyed on (metering_point_id, reading_type_code, timestamp) and
// returns the number of rows actually inserted. Re-running over an already
// ingested range is a no-op, which is what makes ingestion idempotent.
func (r *Repository) InsertReadings(ctx context.Context, readings []db.MeterReading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO meter_readings (
			id, timestamp, value, reading_type_code, quality,
			metering_point_id, user_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (metering_point_id, reading_type_code, timestamp) DO NOTHING
	`

	var inserted int64
	for _, reading := range readings {
		id := reading.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		tag, err := tx.Exec(ctx, query,
			id,
			reading.Timestamp,
			reading.Value.String(),
			reading.ReadingTypeCode,
			reading.Quality,
			reading.MeteringPointID,
			reading.UserID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert meter reading: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// ListReadings returns raw readings matching the filter in ascending
// timestamp order. The value column is scanned through its text
// representation so the store's decimal precision survives intact.
func (r *Repository) ListReadings(ctx context.Context, filter ReadingFilter) ([]db.MeterReading, error) {
	query := `
		SELECT id, timestamp, value::text, reading_type_code, quality, metering_point_id, user_id
		FROM meter_readings
		WHERE ($1::timestamptz IS NULL OR timestamp >= $1)
		  AND ($2::timestamptz IS NULL OR timestamp <= $2)
		  AND ($3::text IS NULL OR metering_point_id = $3)
		  AND ($4::text IS NULL OR reading_type_code = $4)
		ORDER BY timestamp ASC
	`

	rows, err := r.pool.Query(ctx, query,
		nullableTime(filter.From),
		nullableTime(filter.To),
		nullableString(filter.MeteringPointID),
		nullableString(filter.ReadingTypeCode),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []db.MeterReading
	for rows.Next() {
		var reading db.MeterReading
		var value string
		if err := rows.Scan(
			&reading.ID,
			&reading.Timestamp,
			&value,
			&reading.ReadingTypeCode,
			&reading.Quality,
			&reading.MeteringPointID,
			&reading.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		reading.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse reading value %q: %w", value, err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return readings, nil
}

// ListMeteringPoints returns all metering points
func (r *Repository) ListMeteringPoints(ctx context.Context) ([]db.MeteringPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT gsrn, user_id, name, created_at FROM metering_points ORDER BY gsrn`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metering points: %w", err)
	}
	defer rows.Close()

	var points []db.MeteringPoint
	for rows.Next() {
		var point db.MeteringPoint
		if err := rows.Scan(&point.GSRN, &point.UserID, &point.Name, &point.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metering point: %w", err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return points, nil
}

// ListReadingTypes returns the distinct reading-type codes present in the store
func (r *Repository) ListReadingTypes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT reading_type_code FROM meter_readings ORDER BY reading_type_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reading types: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan reading type: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return codes, nil
}

func defaultPointName(gsrn string) string {
	suffix := gsrn
	if len(gsrn) > 4 {
		suffix = gsrn[len(gsrn)-4:]
	}
	return fmt.Sprintf("Metering point %s", suffix)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
