package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	usageapp "utility-cloud/internal/usage/application"
)

const defaultReadingsTable = "meter_readings"

// UsageReader rolls validated readings up into consumption buckets.
type UsageReader struct {
	db    *sql.DB
	table string
}

// NewUsageReader constructs a reader using the default readings table.
func NewUsageReader(db *sql.DB, opts ...ReaderOption) *UsageReader {
	reader := &UsageReader{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// ReaderOption configures the reader.
type ReaderOption func(*UsageReader)

// WithTable overrides the readings table name.
func WithTable(table string) ReaderOption {
	return func(reader *UsageReader) {
		if reader != nil && table != "" {
			reader.table = table
		}
	}
}

// ListRollup groups validated readings per bucket. Consumption within a
// bucket is the spread between the highest and lowest register value, so
// buckets with a single reading report zero.
func (r *UsageReader) ListRollup(ctx context.Context, tenantID, meterID string, granularity usageapp.Granularity, from, to time.Time) ([]usageapp.Bucket, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("usage reader: nil db")
	}

	var trunc string
	switch granularity {
	case usageapp.GranularityMonthly:
		trunc = "month"
	default:
		trunc = "day"
	}

	query := fmt.Sprintf(`
SELECT date_trunc('%s', read_at) AS bucket, MAX(value) - MIN(value) AS consumption, COUNT(*)
FROM %s
WHERE tenant_id = $1 AND meter_id = $2 AND status = 'validated'
  AND read_at >= $3 AND read_at < $4
GROUP BY bucket
ORDER BY bucket ASC`, trunc, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID, meterID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []usageapp.Bucket
	for rows.Next() {
		var bucket usageapp.Bucket
		if err := rows.Scan(&bucket.Start, &bucket.Consumption, &bucket.ReadingCount); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}
