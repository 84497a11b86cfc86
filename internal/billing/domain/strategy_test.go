package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func flatTariff(rate string) *Tariff {
	return &Tariff{
		ID:       "tariff-flat",
		TenantID: "tenant-a",
		Type:     TariffFlat,
		Currency: "EUR",
		Flat:     &FlatConfig{Rate: decimal.RequireFromString(rate)},
	}
}

func timeOfUseTariff(weekendLogic WeekendLogic) *Tariff {
	return &Tariff{
		ID:        "tariff-tou",
		TenantID:  "tenant-a",
		Type:      TariffTimeOfUse,
		Currency:  "EUR",
		TimeOfUse: &TimeOfUseConfig{Zones: dayNightZones(), WeekendLogic: weekendLogic},
	}
}

func TestFlatRate_TimestampIndependent(t *testing.T) {
	tariff := flatTariff("0.25")
	consumption := decimal.RequireFromString("42.5")
	want := decimal.RequireFromString("10.625")

	timestamps := []time.Time{
		tuesdayAt(0, 0),
		tuesdayAt(12, 30),
		saturdayAt(23, 59),
	}
	for _, at := range timestamps {
		amount, err := FlatRateStrategy{}.Calculate(tariff, consumption, at)
		if err != nil {
			t.Fatalf("calculate at %s: %v", at, err)
		}
		if !amount.Equal(want) {
			t.Fatalf("calculate at %s: got %s want %s", at, amount, want)
		}
	}
}

func TestFlatRate_ZeroConsumption(t *testing.T) {
	amount, err := FlatRateStrategy{}.Calculate(flatTariff("0.25"), decimal.Zero, tuesdayAt(9, 0))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !amount.IsZero() {
		t.Fatalf("zero consumption: got %s want 0", amount)
	}
}

func TestFlatRate_NegativeConsumptionRejected(t *testing.T) {
	_, err := FlatRateStrategy{}.Calculate(flatTariff("0.25"), decimal.RequireFromString("-1"), tuesdayAt(9, 0))
	if !errors.Is(err, ErrNegativeConsumption) {
		t.Fatalf("expected ErrNegativeConsumption, got %v", err)
	}
}

func TestTimeOfUse_NightRateAt2330(t *testing.T) {
	tariff := timeOfUseTariff(WeekendLogicNone)
	amount, err := TimeOfUseRateStrategy{}.Calculate(tariff, decimal.NewFromInt(50), tuesdayAt(23, 30))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	want := decimal.RequireFromString("5.0")
	if !amount.Equal(want) {
		t.Fatalf("tuesday 23:30: got %s want %s", amount, want)
	}
}

func TestTimeOfUse_WeekendOverrideRate(t *testing.T) {
	tariff := timeOfUseTariff(WeekendApplyNightRate)
	amount, err := TimeOfUseRateStrategy{}.Calculate(tariff, decimal.NewFromInt(10), saturdayAt(14, 0))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	want := decimal.RequireFromString("1.0")
	if !amount.Equal(want) {
		t.Fatalf("saturday 14:00 night override: got %s want %s", amount, want)
	}
}

func TestTimeOfUse_MissingConfiguration(t *testing.T) {
	tariff := &Tariff{ID: "broken", Type: TariffTimeOfUse}
	_, err := TimeOfUseRateStrategy{}.Calculate(tariff, decimal.NewFromInt(1), tuesdayAt(9, 0))
	if !errors.Is(err, ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
}

func TestTiered_BucketsAcrossThresholds(t *testing.T) {
	tariff := &Tariff{
		ID:       "tariff-tiered",
		Type:     TariffTiered,
		Currency: "EUR",
		Tiered: &TieredConfig{Tiers: []Tier{
			{UpTo: decimal.NewFromInt(100), Rate: decimal.RequireFromString("0.10")},
			{UpTo: decimal.NewFromInt(300), Rate: decimal.RequireFromString("0.20")},
			{Rate: decimal.RequireFromString("0.30")},
		}},
	}

	cases := []struct {
		consumption string
		want        string
	}{
		{"50", "5"},     // inside first tier
		{"100", "10"},   // exactly first bound
		{"150", "20"},   // 100*0.10 + 50*0.20
		{"300", "50"},   // 100*0.10 + 200*0.20
		{"400", "80"},   // + 100*0.30
		{"0", "0"},
	}
	for _, tc := range cases {
		amount, err := TieredRateStrategy{}.Calculate(tariff, decimal.RequireFromString(tc.consumption), tuesdayAt(9, 0))
		if err != nil {
			t.Fatalf("calculate %s: %v", tc.consumption, err)
		}
		if !amount.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("calculate %s: got %s want %s", tc.consumption, amount, tc.want)
		}
	}
}

func TestTiered_TwoBoundedTiersOverflowUsesLastRate(t *testing.T) {
	tariff := &Tariff{
		ID:   "tariff-tiered-bounded",
		Type: TariffTiered,
		Tiered: &TieredConfig{Tiers: []Tier{
			{UpTo: decimal.NewFromInt(100), Rate: decimal.RequireFromString("0.10")},
			{UpTo: decimal.NewFromInt(200), Rate: decimal.RequireFromString("0.20")},
		}},
	}
	amount, err := TieredRateStrategy{}.Calculate(tariff, decimal.NewFromInt(250), tuesdayAt(9, 0))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	// 100*0.10 + 100*0.20 + 50*0.20
	want := decimal.RequireFromString("40")
	if !amount.Equal(want) {
		t.Fatalf("got %s want %s", amount, want)
	}
}

func TestStrategySupportsTags(t *testing.T) {
	cases := []struct {
		strategy RateStrategy
		tag      TariffType
	}{
		{FlatRateStrategy{}, TariffFlat},
		{TimeOfUseRateStrategy{}, TariffTimeOfUse},
		{TieredRateStrategy{}, TariffTiered},
	}
	for _, tc := range cases {
		if !tc.strategy.Supports(tc.tag) {
			t.Fatalf("%s should support %q", tc.strategy.Name(), tc.tag)
		}
		if tc.strategy.Supports(TariffType("unknown")) {
			t.Fatalf("%s should not support unknown", tc.strategy.Name())
		}
	}
}
