package meters

import (
	"context"
	"errors"
	"fmt"

	propertiesrepo "utility-cloud/internal/properties/infrastructure/postgres"
)

// TariffReader resolves meter tariff assignments via the properties
// context.
type TariffReader struct {
	repo *propertiesrepo.MeterRepository
}

// NewTariffReader constructs a reader.
func NewTariffReader(repo *propertiesrepo.MeterRepository) *TariffReader {
	return &TariffReader{repo: repo}
}

// TariffIDForMeter returns the tariff a meter is billed under.
func (r *TariffReader) TariffIDForMeter(ctx context.Context, tenantID, meterID string) (string, error) {
	if r == nil || r.repo == nil {
		return "", errors.New("meter tariff reader: nil repository")
	}
	meter, err := r.repo.Get(ctx, meterID)
	if err != nil {
		return "", err
	}
	if meter == nil || meter.TenantID != tenantID {
		return "", fmt.Errorf("meter tariff reader: meter %s not found for tenant", meterID)
	}
	if meter.TariffID == "" {
		return "", fmt.Errorf("meter tariff reader: meter %s has no tariff assigned", meterID)
	}
	return meter.TariffID, nil
}
