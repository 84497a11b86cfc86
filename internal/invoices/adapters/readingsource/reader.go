package readingsource

import (
	"context"
	"errors"
	"time"

	invoicesapp "utility-cloud/internal/invoices/application"
	readings "utility-cloud/internal/readings/domain"
)

// ValidatedReader adapts the readings repository into the invoice
// generator's reading source.
type ValidatedReader struct {
	repo readings.Repository
}

// NewValidatedReader constructs a reader.
func NewValidatedReader(repo readings.Repository) *ValidatedReader {
	return &ValidatedReader{repo: repo}
}

// ListValidated returns validated readings ordered by read_at.
func (r *ValidatedReader) ListValidated(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]invoicesapp.ValidatedReading, error) {
	if r == nil || r.repo == nil {
		return nil, errors.New("validated reader: nil repository")
	}
	list, err := r.repo.ListValidatedByMeter(ctx, tenantID, meterID, from, to)
	if err != nil {
		return nil, err
	}
	result := make([]invoicesapp.ValidatedReading, 0, len(list))
	for _, reading := range list {
		result = append(result, invoicesapp.ValidatedReading{
			ReadingID: reading.ID,
			Value:     reading.Value,
			ReadAt:    reading.ReadAt,
		})
	}
	return result, nil
}
