package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	readings "utility-cloud/internal/readings/domain"
)

// ReadingRepository persists meter readings.
type ReadingRepository struct {
	db *sql.DB
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

const readingColumns = `id, tenant_id, meter_id, value, read_at, entered_by, status, review_note, created_at, updated_at`

// Create inserts a reading.
func (r *ReadingRepository) Create(ctx context.Context, reading *readings.MeterReading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO meter_readings (`+readingColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		reading.ID, reading.TenantID, reading.MeterID, reading.Value, reading.ReadAt,
		reading.EnteredBy, string(reading.ValidationStatus), reading.ReviewNote,
		reading.CreatedAt, reading.UpdatedAt)
	return err
}

// Update rewrites a reading row.
func (r *ReadingRepository) Update(ctx context.Context, reading *readings.MeterReading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE meter_readings
SET value = $1, read_at = $2, status = $3, review_note = $4, updated_at = $5
WHERE id = $6 AND tenant_id = $7`,
		reading.Value, reading.ReadAt, string(reading.ValidationStatus), reading.ReviewNote,
		reading.UpdatedAt, reading.ID, reading.TenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return readings.ErrNotFound
	}
	return nil
}

// Delete removes a reading.
func (r *ReadingRepository) Delete(ctx context.Context, tenantID, id string) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
DELETE FROM meter_readings WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return readings.ErrNotFound
	}
	return nil
}

// FindByID fetches one reading scoped to the tenant. Missing rows return nil.
func (r *ReadingRepository) FindByID(ctx context.Context, tenantID, id string) (*readings.MeterReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+readingColumns+`
FROM meter_readings
WHERE id = $1 AND tenant_id = $2
LIMIT 1`, id, tenantID)

	reading, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reading, nil
}

// ListByMeter returns readings of a meter in [from, to) ordered by read_at.
func (r *ReadingRepository) ListByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*readings.MeterReading, error) {
	return r.list(ctx, `
SELECT `+readingColumns+`
FROM meter_readings
WHERE tenant_id = $1 AND meter_id = $2 AND read_at >= $3 AND read_at < $4
ORDER BY read_at ASC`, tenantID, meterID, from, to)
}

// ListValidatedByMeter returns validated readings in [from, to) ordered by read_at.
func (r *ReadingRepository) ListValidatedByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*readings.MeterReading, error) {
	return r.list(ctx, `
SELECT `+readingColumns+`
FROM meter_readings
WHERE tenant_id = $1 AND meter_id = $2 AND status = 'validated' AND read_at >= $3 AND read_at < $4
ORDER BY read_at ASC`, tenantID, meterID, from, to)
}

// LatestForMeter returns the most recent reading by read_at, or nil.
func (r *ReadingRepository) LatestForMeter(ctx context.Context, tenantID, meterID string) (*readings.MeterReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+readingColumns+`
FROM meter_readings
WHERE tenant_id = $1 AND meter_id = $2
ORDER BY read_at DESC
LIMIT 1`, tenantID, meterID)

	reading, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reading, nil
}

// PreviousForMeter returns the most recent reading other than excludeID, or nil.
func (r *ReadingRepository) PreviousForMeter(ctx context.Context, tenantID, meterID, excludeID string) (*readings.MeterReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+readingColumns+`
FROM meter_readings
WHERE tenant_id = $1 AND meter_id = $2 AND id <> $3
ORDER BY read_at DESC
LIMIT 1`, tenantID, meterID, excludeID)

	reading, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reading, nil
}

func (r *ReadingRepository) list(ctx context.Context, query string, args ...any) ([]*readings.MeterReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*readings.MeterReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, reading)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*readings.MeterReading, error) {
	var (
		reading readings.MeterReading
		status  string
	)
	err := row.Scan(&reading.ID, &reading.TenantID, &reading.MeterID, &reading.Value, &reading.ReadAt,
		&reading.EnteredBy, &status, &reading.ReviewNote, &reading.CreatedAt, &reading.UpdatedAt)
	if err != nil {
		return nil, err
	}
	reading.ValidationStatus = readings.ValidationStatus(status)
	return &reading, nil
}
