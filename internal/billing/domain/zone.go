package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

// Zone is one time-of-day pricing band of a time-of-use tariff.
// Start and End are HH:MM on a 24-hour clock; End at or before Start
// means the band crosses midnight.
type Zone struct {
	ID    string          `json:"id"`
	Start string          `json:"start"`
	End   string          `json:"end"`
	Rate  decimal.Decimal `json:"rate"`
}

// Contains reports whether the timestamp's time of day falls in [Start, End).
func (z Zone) Contains(at time.Time) (bool, error) {
	startMin, err := ParseClock(z.Start)
	if err != nil {
		return false, err
	}
	endMin, err := ParseClock(z.End)
	if err != nil {
		return false, err
	}
	minute := at.Hour()*60 + at.Minute()
	if startMin < endMin {
		return minute >= startMin && minute < endMin, nil
	}
	// Crosses midnight.
	return minute >= startMin || minute < endMin, nil
}

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return hour*60 + minute, nil
}

// IsWeekend reports whether the timestamp falls on Saturday or Sunday.
func IsWeekend(at time.Time) bool {
	day := at.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// ResolveZone maps a timestamp to the applicable zone.
//
// When weekendLogic is set and the timestamp falls on a weekend, the
// zone named by the logic tag wins over time-of-day resolution if it
// exists in the list. Otherwise zones are scanned in declaration order
// and the first one containing the timestamp is returned; the weekend
// zone is reachable only through the override, never through the
// time-of-day scan. A list that covers no zone for the timestamp is a
// data-integrity fault and resolves to ErrNoZoneMatched.
func ResolveZone(zones []Zone, at time.Time, weekendLogic WeekendLogic) (Zone, error) {
	if len(zones) == 0 {
		return Zone{}, ErrNoZoneMatched
	}

	if weekendLogic != WeekendLogicNone && IsWeekend(at) {
		target := weekendLogic.TargetZoneID()
		for _, zone := range zones {
			if zone.ID == target {
				return zone, nil
			}
		}
	}

	for _, zone := range zones {
		if zone.ID == weekendZoneID {
			continue
		}
		match, err := zone.Contains(at)
		if err != nil {
			return Zone{}, err
		}
		if match {
			return zone, nil
		}
	}
	return Zone{}, fmt.Errorf("%w: %s", ErrNoZoneMatched, at.Format("15:04"))
}
