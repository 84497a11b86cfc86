package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubRollupReader struct {
	lastGranularity Granularity
	lastFrom        time.Time
	lastTo          time.Time
	buckets         []Bucket
}

func (s *stubRollupReader) ListRollup(_ context.Context, _, _ string, granularity Granularity, from, to time.Time) ([]Bucket, error) {
	s.lastGranularity = granularity
	s.lastFrom = from
	s.lastTo = to
	return s.buckets, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestRollup_DefaultsToDailyLast30Days(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &stubRollupReader{buckets: []Bucket{
		{Start: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), Consumption: decimal.NewFromInt(12), ReadingCount: 3},
	}}
	service, err := NewService(reader, fixedClock{now: now})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	buckets, err := service.Rollup(context.Background(), "tenant-1", "meter-1", "", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if reader.lastGranularity != GranularityDaily {
		t.Fatalf("expected daily granularity, got %s", reader.lastGranularity)
	}
	if !reader.lastTo.Equal(now) {
		t.Fatalf("expected to=%v, got %v", now, reader.lastTo)
	}
	if !reader.lastFrom.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("expected 30-day default window, got from=%v", reader.lastFrom)
	}
}

func TestRollup_MonthlyDefaultsToLastYear(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &stubRollupReader{}
	service, _ := NewService(reader, fixedClock{now: now})

	if _, err := service.Rollup(context.Background(), "tenant-1", "meter-1", "monthly", time.Time{}, time.Time{}); err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if reader.lastGranularity != GranularityMonthly {
		t.Fatalf("expected monthly granularity, got %s", reader.lastGranularity)
	}
	if !reader.lastFrom.Equal(now.AddDate(-1, 0, 0)) {
		t.Fatalf("expected 12-month default window, got from=%v", reader.lastFrom)
	}
}

func TestRollup_RejectsUnknownGranularity(t *testing.T) {
	service, _ := NewService(&stubRollupReader{}, fixedClock{now: time.Now()})

	_, err := service.Rollup(context.Background(), "tenant-1", "meter-1", "hourly", time.Time{}, time.Time{})
	if !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
}

func TestRollup_RejectsInvertedRange(t *testing.T) {
	service, _ := NewService(&stubRollupReader{}, fixedClock{now: time.Now()})

	from := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	if _, err := service.Rollup(context.Background(), "tenant-1", "meter-1", "daily", from, to); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
