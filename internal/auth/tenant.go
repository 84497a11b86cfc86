package auth

import (
	"context"
	"database/sql"
	"errors"

	propertiesrepo "utility-cloud/internal/properties/infrastructure/postgres"
)

var (
	// ErrTenantMismatch indicates resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// MeterTenantChecker validates meter tenant ownership.
type MeterTenantChecker interface {
	EnsureMeterTenant(ctx context.Context, tenantID, meterID string) error
}

// MeterChecker checks meter ownership using the properties context.
type MeterChecker struct {
	repo *propertiesrepo.MeterRepository
}

// NewMeterChecker constructs a MeterChecker.
func NewMeterChecker(db *sql.DB) *MeterChecker {
	if db == nil {
		return nil
	}
	return &MeterChecker{repo: propertiesrepo.NewMeterRepository(db)}
}

// EnsureMeterTenant verifies the meter belongs to the tenant.
func (c *MeterChecker) EnsureMeterTenant(ctx context.Context, tenantID, meterID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if tenantID == "" || meterID == "" {
		return nil
	}
	meter, err := c.repo.Get(ctx, meterID)
	if err != nil {
		return err
	}
	if meter == nil {
		return ErrNotFound
	}
	if meter.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
