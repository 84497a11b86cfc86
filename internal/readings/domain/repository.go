package readings

import (
	"context"
	"time"
)

// Repository persists meter readings.
type Repository interface {
	Create(ctx context.Context, r *MeterReading) error
	Update(ctx context.Context, r *MeterReading) error
	Delete(ctx context.Context, tenantID, id string) error
	FindByID(ctx context.Context, tenantID, id string) (*MeterReading, error)
	ListByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*MeterReading, error)
	// LatestForMeter returns the most recent reading by read_at, or nil.
	LatestForMeter(ctx context.Context, tenantID, meterID string) (*MeterReading, error)
	// PreviousForMeter returns the most recent reading other than excludeID, or nil.
	PreviousForMeter(ctx context.Context, tenantID, meterID, excludeID string) (*MeterReading, error)
	// ListValidatedByMeter returns validated readings ordered by read_at.
	ListValidatedByMeter(ctx context.Context, tenantID, meterID string, from, to time.Time) ([]*MeterReading, error)
}
