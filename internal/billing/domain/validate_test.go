package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateTariff_DayNightCoverage(t *testing.T) {
	tariff := timeOfUseTariff(WeekendLogicNone)
	if err := ValidateTariff(tariff); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateTariff_GapRejected(t *testing.T) {
	tariff := &Tariff{
		Type: TariffTimeOfUse,
		TimeOfUse: &TimeOfUseConfig{Zones: []Zone{
			{ID: "day", Start: "07:00", End: "22:00", Rate: decimal.New(2, -1)},
			{ID: "night", Start: "23:00", End: "07:00", Rate: decimal.New(1, -1)},
		}},
	}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for gap, got %v", err)
	}
}

func TestValidateTariff_OverlapRejected(t *testing.T) {
	tariff := &Tariff{
		Type: TariffTimeOfUse,
		TimeOfUse: &TimeOfUseConfig{Zones: []Zone{
			{ID: "day", Start: "07:00", End: "23:30", Rate: decimal.New(2, -1)},
			{ID: "night", Start: "23:00", End: "07:00", Rate: decimal.New(1, -1)},
		}},
	}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for overlap, got %v", err)
	}
}

func TestValidateTariff_WeekendZoneExemptFromCoverage(t *testing.T) {
	zones := append(dayNightZones(), Zone{ID: "weekend", Start: "00:00", End: "00:00", Rate: decimal.New(5, -2)})
	tariff := &Tariff{
		Type:      TariffTimeOfUse,
		TimeOfUse: &TimeOfUseConfig{Zones: zones, WeekendLogic: WeekendApplyWeekendRate},
	}
	if err := ValidateTariff(tariff); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateTariff_WeekendLogicTargetMissing(t *testing.T) {
	tariff := &Tariff{
		Type:      TariffTimeOfUse,
		TimeOfUse: &TimeOfUseConfig{Zones: dayNightZones(), WeekendLogic: WeekendApplyWeekendRate},
	}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for missing weekend zone, got %v", err)
	}
}

func TestValidateTariff_FlatNegativeRate(t *testing.T) {
	tariff := &Tariff{Type: TariffFlat, Flat: &FlatConfig{Rate: decimal.RequireFromString("-0.1")}}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidateTariff_TierBoundsAscending(t *testing.T) {
	tariff := &Tariff{
		Type: TariffTiered,
		Tiered: &TieredConfig{Tiers: []Tier{
			{UpTo: decimal.NewFromInt(200), Rate: decimal.New(1, -1)},
			{UpTo: decimal.NewFromInt(100), Rate: decimal.New(2, -1)},
		}},
	}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidateTariff_UnboundedTierMustBeLast(t *testing.T) {
	tariff := &Tariff{
		Type: TariffTiered,
		Tiered: &TieredConfig{Tiers: []Tier{
			{Rate: decimal.New(1, -1)},
			{UpTo: decimal.NewFromInt(100), Rate: decimal.New(2, -1)},
		}},
	}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidateTariff_UnknownType(t *testing.T) {
	tariff := &Tariff{Type: TariffType("prepaid")}
	err := ValidateTariff(tariff)
	if !errors.Is(err, ErrUnsupportedTariffType) {
		t.Fatalf("expected ErrUnsupportedTariffType, got %v", err)
	}
}

func TestTariffConfigurationRoundTrip(t *testing.T) {
	original := timeOfUseTariff(WeekendApplyNightRate)
	raw, err := original.MarshalConfiguration()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := &Tariff{Type: TariffTimeOfUse}
	if err := restored.UnmarshalConfiguration(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(restored.TimeOfUse.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(restored.TimeOfUse.Zones))
	}
	if restored.TimeOfUse.WeekendLogic != WeekendApplyNightRate {
		t.Fatalf("weekend logic lost: %q", restored.TimeOfUse.WeekendLogic)
	}
	if !restored.TimeOfUse.Zones[1].Rate.Equal(decimal.RequireFromString("0.10")) {
		t.Fatalf("night rate lost: %s", restored.TimeOfUse.Zones[1].Rate)
	}
}
