package billing

import "errors"

var (
	// ErrUnsupportedTariffType indicates no registered strategy handles the tariff type.
	ErrUnsupportedTariffType = errors.New("billing: unsupported tariff type")
	// ErrMissingConfiguration indicates the tariff lacks configuration for its declared type.
	ErrMissingConfiguration = errors.New("billing: configuration missing for tariff type")
	// ErrNoZoneMatched indicates no time-of-use zone covers the timestamp.
	ErrNoZoneMatched = errors.New("billing: no zone matched timestamp")
	// ErrNegativeConsumption indicates a negative consumption delta.
	ErrNegativeConsumption = errors.New("billing: negative consumption")
	// ErrInvalidClock indicates a malformed HH:MM value.
	ErrInvalidClock = errors.New("billing: invalid clock value")
	// ErrInvalidConfiguration indicates a structurally invalid tariff configuration.
	ErrInvalidConfiguration = errors.New("billing: invalid tariff configuration")
	// ErrStrategyAlreadyRegistered indicates a duplicate strategy registration.
	ErrStrategyAlreadyRegistered = errors.New("billing: strategy already registered")
	// ErrTariffNotFound indicates the tariff does not exist for the tenant.
	ErrTariffNotFound = errors.New("billing: tariff not found")
	// ErrTariffInactive indicates the tariff is not billable.
	ErrTariffInactive = errors.New("billing: tariff inactive")
)
