package billing

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TariffType selects the rate calculation strategy.
type TariffType string

const (
	TariffFlat      TariffType = "flat"
	TariffTimeOfUse TariffType = "time_of_use"
	TariffTiered    TariffType = "tiered"
)

// NormalizeTariffType validates a tariff type string.
func NormalizeTariffType(value string) (TariffType, bool) {
	switch TariffType(value) {
	case TariffFlat, TariffTimeOfUse, TariffTiered:
		return TariffType(value), true
	default:
		return "", false
	}
}

// WeekendLogic overrides normal zone resolution on Saturdays and Sundays.
type WeekendLogic string

const (
	WeekendLogicNone        WeekendLogic = ""
	WeekendApplyNightRate   WeekendLogic = "apply_night_rate"
	WeekendApplyDayRate     WeekendLogic = "apply_day_rate"
	WeekendApplyWeekendRate WeekendLogic = "apply_weekend_rate"
)

// TargetZoneID maps the weekend logic tag to the zone id it selects.
func (l WeekendLogic) TargetZoneID() string {
	switch l {
	case WeekendApplyNightRate:
		return "night"
	case WeekendApplyDayRate:
		return "day"
	case WeekendApplyWeekendRate:
		return "weekend"
	default:
		return ""
	}
}

// FlatConfig prices every unit at a single rate.
type FlatConfig struct {
	Rate decimal.Decimal `json:"rate"`
}

// TimeOfUseConfig prices units by the zone the timestamp falls in.
type TimeOfUseConfig struct {
	Zones        []Zone       `json:"zones"`
	WeekendLogic WeekendLogic `json:"weekend_logic,omitempty"`
}

// Tier is one consumption bucket of a tiered tariff. UpTo is the
// cumulative upper bound; a zero UpTo on the last tier means unbounded.
type Tier struct {
	UpTo decimal.Decimal `json:"up_to"`
	Rate decimal.Decimal `json:"rate"`
}

// TieredConfig prices consumption across ascending buckets.
type TieredConfig struct {
	Tiers []Tier `json:"tiers"`
}

// Tariff is the pricing scheme for a metered service. Exactly one of
// the configuration fields matching Type is set.
type Tariff struct {
	ID        string
	TenantID  string
	Name      string
	Type      TariffType
	Currency  string
	Flat      *FlatConfig
	TimeOfUse *TimeOfUseConfig
	Tiered    *TieredConfig
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalConfiguration serializes the type-specific configuration for storage.
func (t *Tariff) MarshalConfiguration() ([]byte, error) {
	switch t.Type {
	case TariffFlat:
		if t.Flat == nil {
			return nil, ErrMissingConfiguration
		}
		return json.Marshal(t.Flat)
	case TariffTimeOfUse:
		if t.TimeOfUse == nil {
			return nil, ErrMissingConfiguration
		}
		return json.Marshal(t.TimeOfUse)
	case TariffTiered:
		if t.Tiered == nil {
			return nil, ErrMissingConfiguration
		}
		return json.Marshal(t.Tiered)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTariffType, t.Type)
	}
}

// UnmarshalConfiguration parses stored configuration into the field for Type.
func (t *Tariff) UnmarshalConfiguration(raw []byte) error {
	switch t.Type {
	case TariffFlat:
		cfg := &FlatConfig{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return err
		}
		t.Flat = cfg
	case TariffTimeOfUse:
		cfg := &TimeOfUseConfig{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return err
		}
		t.TimeOfUse = cfg
	case TariffTiered:
		cfg := &TieredConfig{}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return err
		}
		t.Tiered = cfg
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedTariffType, t.Type)
	}
	return nil
}
