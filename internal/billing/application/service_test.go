package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	billingapp "utility-cloud/internal/billing/application"
	billing "utility-cloud/internal/billing/domain"
)

type memTariffRepo struct {
	tariffs map[string]*billing.Tariff
}

func newMemTariffRepo() *memTariffRepo {
	return &memTariffRepo{tariffs: make(map[string]*billing.Tariff)}
}

func (r *memTariffRepo) Create(_ context.Context, t *billing.Tariff) error {
	copied := *t
	r.tariffs[t.ID] = &copied
	return nil
}

func (r *memTariffRepo) Update(_ context.Context, t *billing.Tariff) error {
	if _, ok := r.tariffs[t.ID]; !ok {
		return billing.ErrTariffNotFound
	}
	copied := *t
	r.tariffs[t.ID] = &copied
	return nil
}

func (r *memTariffRepo) FindByID(_ context.Context, tenantID, id string) (*billing.Tariff, error) {
	t, ok := r.tariffs[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *memTariffRepo) ListByTenant(_ context.Context, tenantID string) ([]*billing.Tariff, error) {
	var result []*billing.Tariff
	for _, t := range r.tariffs {
		if t.TenantID == tenantID {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newService(t *testing.T, repo billing.Repository, clock billingapp.Clock) *billingapp.Service {
	t.Helper()
	svc, err := billingapp.NewService(repo, nil, clock)
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	return svc
}

func TestCreateTariff_RejectsInvalidConfiguration(t *testing.T) {
	svc := newService(t, newMemTariffRepo(), nil)

	// Zones leave 06:00-07:00 uncovered.
	_, err := svc.CreateTariff(context.Background(), "tenant-a", "gappy", "time_of_use", "",
		[]byte(`{"zones":[{"id":"day","start":"07:00","end":"23:00","rate":"0.2"},{"id":"night","start":"23:00","end":"06:00","rate":"0.1"}]}`))
	if !errors.Is(err, billing.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestCreateTariff_RejectsUnknownType(t *testing.T) {
	svc := newService(t, newMemTariffRepo(), nil)

	_, err := svc.CreateTariff(context.Background(), "tenant-a", "prepaid", "prepaid", "", []byte(`{}`))
	if !errors.Is(err, billing.ErrUnsupportedTariffType) {
		t.Fatalf("expected ErrUnsupportedTariffType, got %v", err)
	}
}

func TestQuote_TimeOfUseNightRate(t *testing.T) {
	repo := newMemTariffRepo()
	clock := fixedClock{now: time.Date(2026, time.January, 6, 12, 0, 0, 0, time.UTC)}
	svc := newService(t, repo, clock)

	tariff, err := svc.CreateTariff(context.Background(), "tenant-a", "day-night", "time_of_use", "EUR",
		[]byte(`{"zones":[{"id":"day","start":"07:00","end":"23:00","rate":"0.20"},{"id":"night","start":"23:00","end":"07:00","rate":"0.10"}]}`))
	if err != nil {
		t.Fatalf("create tariff: %v", err)
	}

	// Tuesday 23:30 falls in the midnight-crossing night zone.
	result, err := svc.Quote(context.Background(), billingapp.QuoteRequest{
		TenantID:    "tenant-a",
		TariffID:    tariff.ID,
		Consumption: decimal.NewFromInt(50),
		At:          time.Date(2026, time.January, 6, 23, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if want := decimal.RequireFromString("5.0"); !result.Amount.Equal(want) {
		t.Fatalf("amount mismatch: got=%s want=%s", result.Amount, want)
	}
	if result.Strategy != "time_of_use" {
		t.Fatalf("strategy mismatch: got=%s", result.Strategy)
	}
	if result.Currency != "EUR" {
		t.Fatalf("currency mismatch: got=%s", result.Currency)
	}
}

func TestQuote_DefaultsTimestampToClock(t *testing.T) {
	repo := newMemTariffRepo()
	clock := fixedClock{now: time.Date(2026, time.January, 6, 23, 45, 0, 0, time.UTC)}
	svc := newService(t, repo, clock)

	tariff, err := svc.CreateTariff(context.Background(), "tenant-a", "day-night", "time_of_use", "",
		[]byte(`{"zones":[{"id":"day","start":"07:00","end":"23:00","rate":"0.20"},{"id":"night","start":"23:00","end":"07:00","rate":"0.10"}]}`))
	if err != nil {
		t.Fatalf("create tariff: %v", err)
	}

	result, err := svc.Quote(context.Background(), billingapp.QuoteRequest{
		TenantID:    "tenant-a",
		TariffID:    tariff.ID,
		Consumption: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if want := decimal.RequireFromString("1.0"); !result.Amount.Equal(want) {
		t.Fatalf("amount mismatch: got=%s want=%s", result.Amount, want)
	}
}

func TestQuote_TenantScoping(t *testing.T) {
	repo := newMemTariffRepo()
	svc := newService(t, repo, nil)

	tariff, err := svc.CreateTariff(context.Background(), "tenant-a", "flat", "flat", "", []byte(`{"rate":"0.25"}`))
	if err != nil {
		t.Fatalf("create tariff: %v", err)
	}

	_, err = svc.Quote(context.Background(), billingapp.QuoteRequest{
		TenantID:    "tenant-b",
		TariffID:    tariff.ID,
		Consumption: decimal.NewFromInt(1),
	})
	if !errors.Is(err, billing.ErrTariffNotFound) {
		t.Fatalf("expected ErrTariffNotFound for foreign tenant, got %v", err)
	}
}

func TestQuote_InactiveTariffRejected(t *testing.T) {
	repo := newMemTariffRepo()
	svc := newService(t, repo, nil)

	tariff, err := svc.CreateTariff(context.Background(), "tenant-a", "flat", "flat", "", []byte(`{"rate":"0.25"}`))
	if err != nil {
		t.Fatalf("create tariff: %v", err)
	}
	if _, err := svc.SetActive(context.Background(), "tenant-a", tariff.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.Quote(context.Background(), billingapp.QuoteRequest{
		TenantID:    "tenant-a",
		TariffID:    tariff.ID,
		Consumption: decimal.NewFromInt(1),
	})
	if !errors.Is(err, billing.ErrTariffInactive) {
		t.Fatalf("expected ErrTariffInactive, got %v", err)
	}
}

func TestQuote_NegativeConsumptionRejected(t *testing.T) {
	svc := newService(t, newMemTariffRepo(), nil)

	_, err := svc.Quote(context.Background(), billingapp.QuoteRequest{
		TenantID:    "tenant-a",
		TariffID:    "trf-any",
		Consumption: decimal.NewFromInt(-1),
	})
	if !errors.Is(err, billing.ErrNegativeConsumption) {
		t.Fatalf("expected ErrNegativeConsumption, got %v", err)
	}
}

func TestUpdateConfiguration_SwapsConfig(t *testing.T) {
	repo := newMemTariffRepo()
	svc := newService(t, repo, nil)

	tariff, err := svc.CreateTariff(context.Background(), "tenant-a", "flat", "flat", "", []byte(`{"rate":"0.25"}`))
	if err != nil {
		t.Fatalf("create tariff: %v", err)
	}

	updated, err := svc.UpdateConfiguration(context.Background(), "tenant-a", tariff.ID, []byte(`{"rate":"0.30"}`))
	if err != nil {
		t.Fatalf("update configuration: %v", err)
	}
	if updated.Flat == nil || !updated.Flat.Rate.Equal(decimal.RequireFromString("0.30")) {
		t.Fatalf("rate not updated: %+v", updated.Flat)
	}
}
