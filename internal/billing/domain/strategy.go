package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateStrategy converts a consumption delta into a monetary amount.
// Strategies never round; rounding happens at invoice line construction.
type RateStrategy interface {
	Name() string
	Supports(tariffType TariffType) bool
	Calculate(tariff *Tariff, consumption decimal.Decimal, at time.Time) (decimal.Decimal, error)
}

// FlatRateStrategy charges a single rate regardless of time of day.
type FlatRateStrategy struct{}

func (FlatRateStrategy) Name() string { return "flat" }

func (FlatRateStrategy) Supports(tariffType TariffType) bool { return tariffType == TariffFlat }

func (FlatRateStrategy) Calculate(tariff *Tariff, consumption decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	_ = at
	if err := checkInput(tariff, consumption); err != nil {
		return decimal.Zero, err
	}
	if tariff.Flat == nil {
		return decimal.Zero, fmt.Errorf("%w: flat", ErrMissingConfiguration)
	}
	return consumption.Mul(tariff.Flat.Rate), nil
}

// TimeOfUseRateStrategy charges the rate of the zone the timestamp falls in.
type TimeOfUseRateStrategy struct{}

func (TimeOfUseRateStrategy) Name() string { return "time_of_use" }

func (TimeOfUseRateStrategy) Supports(tariffType TariffType) bool {
	return tariffType == TariffTimeOfUse
}

func (TimeOfUseRateStrategy) Calculate(tariff *Tariff, consumption decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	if err := checkInput(tariff, consumption); err != nil {
		return decimal.Zero, err
	}
	if tariff.TimeOfUse == nil {
		return decimal.Zero, fmt.Errorf("%w: time_of_use", ErrMissingConfiguration)
	}
	zone, err := ResolveZone(tariff.TimeOfUse.Zones, at, tariff.TimeOfUse.WeekendLogic)
	if err != nil {
		return decimal.Zero, err
	}
	return consumption.Mul(zone.Rate), nil
}

// TieredRateStrategy buckets consumption across ascending tier bounds
// and sums the per-tier charges.
type TieredRateStrategy struct{}

func (TieredRateStrategy) Name() string { return "tiered" }

func (TieredRateStrategy) Supports(tariffType TariffType) bool { return tariffType == TariffTiered }

func (TieredRateStrategy) Calculate(tariff *Tariff, consumption decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	_ = at
	if err := checkInput(tariff, consumption); err != nil {
		return decimal.Zero, err
	}
	if tariff.Tiered == nil || len(tariff.Tiered.Tiers) == 0 {
		return decimal.Zero, fmt.Errorf("%w: tiered", ErrMissingConfiguration)
	}

	total := decimal.Zero
	remaining := consumption
	previousBound := decimal.Zero
	for _, tier := range tariff.Tiered.Tiers {
		if remaining.IsZero() {
			break
		}
		var bucket decimal.Decimal
		if tier.UpTo.IsZero() {
			// Unbounded final tier.
			bucket = remaining
		} else {
			width := tier.UpTo.Sub(previousBound)
			bucket = decimal.Min(remaining, width)
			previousBound = tier.UpTo
		}
		if bucket.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: tier bounds not ascending", ErrInvalidConfiguration)
		}
		total = total.Add(bucket.Mul(tier.Rate))
		remaining = remaining.Sub(bucket)
	}
	// Consumption beyond the last bounded tier is charged at its rate.
	if remaining.IsPositive() {
		last := tariff.Tiered.Tiers[len(tariff.Tiered.Tiers)-1]
		total = total.Add(remaining.Mul(last.Rate))
	}
	return total, nil
}

func checkInput(tariff *Tariff, consumption decimal.Decimal) error {
	if tariff == nil {
		return ErrMissingConfiguration
	}
	if consumption.IsNegative() {
		return ErrNegativeConsumption
	}
	return nil
}
