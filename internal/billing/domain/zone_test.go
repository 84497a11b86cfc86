package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dayNightZones() []Zone {
	return []Zone{
		{ID: "day", Start: "07:00", End: "23:00", Rate: decimal.RequireFromString("0.20")},
		{ID: "night", Start: "23:00", End: "07:00", Rate: decimal.RequireFromString("0.10")},
	}
}

// 2026-01-06 is a Tuesday, 2026-01-10 a Saturday.
func tuesdayAt(hour, minute int) time.Time {
	return time.Date(2026, 1, 6, hour, minute, 0, 0, time.UTC)
}

func saturdayAt(hour, minute int) time.Time {
	return time.Date(2026, 1, 10, hour, minute, 0, 0, time.UTC)
}

func TestResolveZone_MidnightCrossing(t *testing.T) {
	zones := dayNightZones()
	cases := []struct {
		hour, minute int
		want         string
	}{
		{23, 30, "night"},
		{0, 0, "night"},
		{6, 59, "night"},
		{7, 0, "day"},
		{22, 59, "day"},
	}
	for _, tc := range cases {
		zone, err := ResolveZone(zones, tuesdayAt(tc.hour, tc.minute), WeekendLogicNone)
		if err != nil {
			t.Fatalf("resolve %02d:%02d: %v", tc.hour, tc.minute, err)
		}
		if zone.ID != tc.want {
			t.Fatalf("resolve %02d:%02d: got %q want %q", tc.hour, tc.minute, zone.ID, tc.want)
		}
	}
}

func TestResolveZone_FullDayCoverage(t *testing.T) {
	zones := dayNightZones()
	for minute := 0; minute < 24*60; minute++ {
		at := tuesdayAt(minute/60, minute%60)
		zone, err := ResolveZone(zones, at, WeekendLogicNone)
		if err != nil {
			t.Fatalf("minute %d: %v", minute, err)
		}
		want := "night"
		if minute >= 7*60 && minute < 23*60 {
			want = "day"
		}
		if zone.ID != want {
			t.Fatalf("minute %d: got %q want %q", minute, zone.ID, want)
		}
	}
}

func TestResolveZone_WeekendOverridePrecedence(t *testing.T) {
	zones := dayNightZones()

	zone, err := ResolveZone(zones, saturdayAt(14, 0), WeekendApplyNightRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "night" {
		t.Fatalf("saturday 14:00 with apply_night_rate: got %q want night", zone.ID)
	}

	// Same clock time on a weekday resolves normally.
	zone, err = ResolveZone(zones, tuesdayAt(14, 0), WeekendApplyNightRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "day" {
		t.Fatalf("tuesday 14:00: got %q want day", zone.ID)
	}
}

func TestResolveZone_WeekendZoneNotMatchedOnWeekdays(t *testing.T) {
	// A full-day weekend zone declared first must not capture weekday
	// timestamps; it is only reachable through the weekend override.
	zones := []Zone{
		{ID: "weekend", Start: "00:00", End: "00:00", Rate: decimal.RequireFromString("0.05")},
		{ID: "day", Start: "07:00", End: "23:00", Rate: decimal.RequireFromString("0.20")},
		{ID: "night", Start: "23:00", End: "07:00", Rate: decimal.RequireFromString("0.10")},
	}

	zone, err := ResolveZone(zones, tuesdayAt(12, 0), WeekendApplyWeekendRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "day" {
		t.Fatalf("tuesday 12:00: got %q want day", zone.ID)
	}

	zone, err = ResolveZone(zones, tuesdayAt(3, 0), WeekendApplyWeekendRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "night" {
		t.Fatalf("tuesday 03:00: got %q want night", zone.ID)
	}

	zone, err = ResolveZone(zones, saturdayAt(12, 0), WeekendApplyWeekendRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "weekend" {
		t.Fatalf("saturday 12:00: got %q want weekend", zone.ID)
	}
}

func TestResolveZone_WeekendOverrideMissingTargetFallsThrough(t *testing.T) {
	zones := dayNightZones()
	zone, err := ResolveZone(zones, saturdayAt(14, 0), WeekendApplyWeekendRate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if zone.ID != "day" {
		t.Fatalf("missing weekend zone should fall through to day, got %q", zone.ID)
	}
}

func TestResolveZone_NoMatchFailsLoudly(t *testing.T) {
	zones := []Zone{{ID: "day", Start: "07:00", End: "23:00", Rate: decimal.New(2, -1)}}
	_, err := ResolveZone(zones, tuesdayAt(3, 0), WeekendLogicNone)
	if !errors.Is(err, ErrNoZoneMatched) {
		t.Fatalf("expected ErrNoZoneMatched, got %v", err)
	}
}

func TestResolveZone_EmptyList(t *testing.T) {
	_, err := ResolveZone(nil, tuesdayAt(12, 0), WeekendLogicNone)
	if !errors.Is(err, ErrNoZoneMatched) {
		t.Fatalf("expected ErrNoZoneMatched, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"23:59", 23*60 + 59, true},
		{"07:30", 7*60 + 30, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidClock) {
				t.Fatalf("parse %q: expected ErrInvalidClock, got %v", tc.in, err)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %d want %d", tc.in, got, tc.want)
		}
	}
}
