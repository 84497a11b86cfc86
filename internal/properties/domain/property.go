package properties

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("properties: not found")
	// ErrInvalidService indicates an unknown metered service type.
	ErrInvalidService = errors.New("properties: invalid service type")
)

// ServiceType is the utility a meter measures.
type ServiceType string

const (
	ServiceElectricity ServiceType = "electricity"
	ServiceGas         ServiceType = "gas"
	ServiceWater       ServiceType = "water"
)

// NormalizeService validates a service type string.
func NormalizeService(value string) (ServiceType, bool) {
	switch ServiceType(value) {
	case ServiceElectricity, ServiceGas, ServiceWater:
		return ServiceType(value), true
	default:
		return "", false
	}
}

// Unit returns the consumption unit for the service.
func (s ServiceType) Unit() string {
	switch s {
	case ServiceElectricity:
		return "kWh"
	case ServiceGas, ServiceWater:
		return "m3"
	default:
		return ""
	}
}

// Property is a managed building or site.
type Property struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unit is a rentable unit within a property.
type Unit struct {
	ID         string
	TenantID   string
	PropertyID string
	Label      string
	OccupantID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Meter measures one service for one unit and carries the tariff it
// is billed under.
type Meter struct {
	ID        string
	TenantID  string
	UnitID    string
	Serial    string
	Service   ServiceType
	TariffID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
