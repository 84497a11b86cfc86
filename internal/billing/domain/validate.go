package billing

import "fmt"

// weekendZoneID marks a zone reachable only through weekend override.
// It is exempt from the 24h coverage check since it never takes part
// in time-of-day rotation.
const weekendZoneID = "weekend"

// ValidateTariff checks a tariff's configuration for structural
// validity at save time. The calculation engine assumes tariffs passed
// to it already satisfy these checks.
func ValidateTariff(t *Tariff) error {
	if t == nil {
		return ErrMissingConfiguration
	}
	switch t.Type {
	case TariffFlat:
		if t.Flat == nil {
			return fmt.Errorf("%w: flat", ErrMissingConfiguration)
		}
		if t.Flat.Rate.IsNegative() {
			return fmt.Errorf("%w: negative flat rate", ErrInvalidConfiguration)
		}
		return nil
	case TariffTimeOfUse:
		if t.TimeOfUse == nil || len(t.TimeOfUse.Zones) == 0 {
			return fmt.Errorf("%w: time_of_use", ErrMissingConfiguration)
		}
		return validateZones(t.TimeOfUse.Zones, t.TimeOfUse.WeekendLogic)
	case TariffTiered:
		if t.Tiered == nil || len(t.Tiered.Tiers) == 0 {
			return fmt.Errorf("%w: tiered", ErrMissingConfiguration)
		}
		return validateTiers(t.Tiered.Tiers)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedTariffType, t.Type)
	}
}

// validateZones enforces the engine's coverage invariant: the rotating
// zones cover the full day exactly once, with no overlap and no gap.
func validateZones(zones []Zone, weekendLogic WeekendLogic) error {
	seen := make(map[string]struct{}, len(zones))
	var covered [minutesPerDay]bool
	weekendZonePresent := false

	for _, zone := range zones {
		if zone.ID == "" {
			return fmt.Errorf("%w: zone missing id", ErrInvalidConfiguration)
		}
		if _, dup := seen[zone.ID]; dup {
			return fmt.Errorf("%w: duplicate zone id %q", ErrInvalidConfiguration, zone.ID)
		}
		seen[zone.ID] = struct{}{}
		if zone.Rate.IsNegative() {
			return fmt.Errorf("%w: negative rate in zone %q", ErrInvalidConfiguration, zone.ID)
		}

		startMin, err := ParseClock(zone.Start)
		if err != nil {
			return err
		}
		endMin, err := ParseClock(zone.End)
		if err != nil {
			return err
		}
		if zone.ID == weekendZoneID {
			weekendZonePresent = true
			continue
		}
		for minute := startMin; ; minute = (minute + 1) % minutesPerDay {
			if minute == endMin && minute != startMin {
				break
			}
			if covered[minute] {
				return fmt.Errorf("%w: zone %q overlaps at %02d:%02d", ErrInvalidConfiguration, zone.ID, minute/60, minute%60)
			}
			covered[minute] = true
			if startMin == endMin && minute == (startMin+minutesPerDay-1)%minutesPerDay {
				break
			}
		}
	}

	for minute := 0; minute < minutesPerDay; minute++ {
		if !covered[minute] {
			return fmt.Errorf("%w: uncovered minute %02d:%02d", ErrInvalidConfiguration, minute/60, minute%60)
		}
	}

	if weekendLogic != WeekendLogicNone {
		target := weekendLogic.TargetZoneID()
		if target == "" {
			return fmt.Errorf("%w: unknown weekend logic %q", ErrInvalidConfiguration, weekendLogic)
		}
		if _, ok := seen[target]; !ok {
			return fmt.Errorf("%w: weekend logic targets missing zone %q", ErrInvalidConfiguration, target)
		}
	}
	if weekendZonePresent && weekendLogic != WeekendApplyWeekendRate {
		return fmt.Errorf("%w: weekend zone present without apply_weekend_rate", ErrInvalidConfiguration)
	}
	return nil
}

func validateTiers(tiers []Tier) error {
	previous := tiers[0].UpTo
	for i, tier := range tiers {
		if tier.Rate.IsNegative() {
			return fmt.Errorf("%w: negative rate in tier %d", ErrInvalidConfiguration, i)
		}
		if tier.UpTo.IsZero() {
			if i != len(tiers)-1 {
				return fmt.Errorf("%w: unbounded tier %d is not last", ErrInvalidConfiguration, i)
			}
			continue
		}
		if tier.UpTo.IsNegative() {
			return fmt.Errorf("%w: negative bound in tier %d", ErrInvalidConfiguration, i)
		}
		if i > 0 && tier.UpTo.LessThanOrEqual(previous) {
			return fmt.Errorf("%w: tier bounds not ascending at %d", ErrInvalidConfiguration, i)
		}
		previous = tier.UpTo
	}
	return nil
}
