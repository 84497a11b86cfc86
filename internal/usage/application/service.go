package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the rollup bucket size.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// ErrUnknownGranularity is returned for unrecognised granularity names.
var ErrUnknownGranularity = errors.New("usage: unknown granularity")

// NormalizeGranularity validates a granularity name, defaulting to daily.
func NormalizeGranularity(raw string) (Granularity, error) {
	switch Granularity(raw) {
	case "":
		return GranularityDaily, nil
	case GranularityDaily, GranularityMonthly:
		return Granularity(raw), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownGranularity, raw)
	}
}

// Bucket is one rollup row: total consumption within the bucket window.
type Bucket struct {
	Start        time.Time
	Consumption  decimal.Decimal
	ReadingCount int
}

// RollupReader loads consumption buckets from storage.
type RollupReader interface {
	ListRollup(ctx context.Context, tenantID, meterID string, granularity Granularity, from, to time.Time) ([]Bucket, error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock uses the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service answers consumption rollup queries.
type Service struct {
	reader RollupReader
	clock  Clock
}

// NewService constructs a Service.
func NewService(reader RollupReader, clock Clock) (*Service, error) {
	if reader == nil {
		return nil, errors.New("usage service: nil reader")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{reader: reader, clock: clock}, nil
}

// Rollup returns consumption buckets for a meter. An empty range defaults to
// the last 30 days for daily and the last 12 months for monthly.
func (s *Service) Rollup(ctx context.Context, tenantID, meterID, granularity string, from, to time.Time) ([]Bucket, error) {
	if s == nil {
		return nil, errors.New("usage service: nil service")
	}
	if tenantID == "" || meterID == "" {
		return nil, errors.New("usage service: tenant and meter required")
	}
	gran, err := NormalizeGranularity(granularity)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		switch gran {
		case GranularityMonthly:
			from = to.AddDate(-1, 0, 0)
		default:
			from = to.AddDate(0, 0, -30)
		}
	}
	if !from.Before(to) {
		return nil, errors.New("usage service: from must precede to")
	}
	return s.reader.ListRollup(ctx, tenantID, meterID, gran, from.UTC(), to.UTC())
}
