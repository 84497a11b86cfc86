package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	properties "utility-cloud/internal/properties/domain"
	"utility-cloud/internal/properties/infrastructure/postgres"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service manages properties, units and meters.
type Service struct {
	properties *postgres.PropertyRepository
	meters     *postgres.MeterRepository
	clock      Clock
}

// NewService constructs a Service.
func NewService(propertyRepo *postgres.PropertyRepository, meterRepo *postgres.MeterRepository, clock Clock) (*Service, error) {
	if propertyRepo == nil || meterRepo == nil {
		return nil, errors.New("properties service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{properties: propertyRepo, meters: meterRepo, clock: clock}, nil
}

// CreateProperty registers a building or site.
func (s *Service) CreateProperty(ctx context.Context, tenantID, name, address string) (*properties.Property, error) {
	if tenantID == "" {
		return nil, errors.New("properties service: tenant required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("properties service: empty name")
	}
	now := s.clock.Now().UTC()
	property := &properties.Property{
		ID:        newID("prop"),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.properties.CreateProperty(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// ListProperties returns the tenant's properties.
func (s *Service) ListProperties(ctx context.Context, tenantID string) ([]properties.Property, error) {
	return s.properties.ListProperties(ctx, tenantID)
}

// CreateUnit registers a rentable unit within a property.
func (s *Service) CreateUnit(ctx context.Context, tenantID, propertyID, label, occupantID string) (*properties.Unit, error) {
	if tenantID == "" || propertyID == "" {
		return nil, errors.New("properties service: tenant and property required")
	}
	if strings.TrimSpace(label) == "" {
		return nil, errors.New("properties service: empty label")
	}
	now := s.clock.Now().UTC()
	unit := &properties.Unit{
		ID:         newID("unit"),
		TenantID:   tenantID,
		PropertyID: propertyID,
		Label:      strings.TrimSpace(label),
		OccupantID: occupantID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.properties.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// ListUnits returns units for a property.
func (s *Service) ListUnits(ctx context.Context, tenantID, propertyID string) ([]properties.Unit, error) {
	return s.properties.ListUnits(ctx, tenantID, propertyID)
}

// CreateMeter registers a meter on a unit.
func (s *Service) CreateMeter(ctx context.Context, tenantID, unitID, serial, service, tariffID string) (*properties.Meter, error) {
	if tenantID == "" || unitID == "" {
		return nil, errors.New("properties service: tenant and unit required")
	}
	serviceType, ok := properties.NormalizeService(service)
	if !ok {
		return nil, properties.ErrInvalidService
	}
	now := s.clock.Now().UTC()
	meter := &properties.Meter{
		ID:        newID("mtr"),
		TenantID:  tenantID,
		UnitID:    unitID,
		Serial:    strings.TrimSpace(serial),
		Service:   serviceType,
		TariffID:  tariffID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.meters.Create(ctx, meter); err != nil {
		return nil, err
	}
	return meter, nil
}

// ListMeters returns the tenant's meters.
func (s *Service) ListMeters(ctx context.Context, tenantID string) ([]properties.Meter, error) {
	return s.meters.ListByTenant(ctx, tenantID)
}

// GetMeter fetches one meter scoped to the tenant.
func (s *Service) GetMeter(ctx context.Context, tenantID, meterID string) (*properties.Meter, error) {
	meter, err := s.meters.Get(ctx, meterID)
	if err != nil {
		return nil, err
	}
	if meter == nil || meter.TenantID != tenantID {
		return nil, properties.ErrNotFound
	}
	return meter, nil
}

// AssignTariff points a meter at a tariff.
func (s *Service) AssignTariff(ctx context.Context, tenantID, meterID, tariffID string) error {
	if tariffID == "" {
		return errors.New("properties service: empty tariff id")
	}
	return s.meters.SetTariff(ctx, tenantID, meterID, tariffID)
}

func newID(prefix string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return prefix + "-" + hex.EncodeToString(buf)
}
