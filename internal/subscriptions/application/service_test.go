package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	subscriptions "utility-cloud/internal/subscriptions/domain"
)

type memSubscriptionRepo struct {
	subs map[string]*subscriptions.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: make(map[string]*subscriptions.Subscription)}
}

func (r *memSubscriptionRepo) Create(_ context.Context, s *subscriptions.Subscription) error {
	copied := *s
	r.subs[s.ID] = &copied
	return nil
}

func (r *memSubscriptionRepo) Update(_ context.Context, s *subscriptions.Subscription) error {
	if _, ok := r.subs[s.ID]; !ok {
		return subscriptions.ErrNotFound
	}
	copied := *s
	r.subs[s.ID] = &copied
	return nil
}

func (r *memSubscriptionRepo) FindByID(_ context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	sub, ok := r.subs[id]
	if !ok || sub.TenantID != tenantID {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (r *memSubscriptionRepo) ListByTenant(_ context.Context, tenantID string) ([]*subscriptions.Subscription, error) {
	var result []*subscriptions.Subscription
	for _, sub := range r.subs {
		if sub.TenantID == tenantID {
			copied := *sub
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memSubscriptionRepo) ListLapsed(_ context.Context, cutoff time.Time) ([]*subscriptions.Subscription, error) {
	var result []*subscriptions.Subscription
	for _, sub := range r.subs {
		if sub.Status == subscriptions.StatusActive && sub.CurrentPeriodEnd.Before(cutoff) {
			copied := *sub
			result = append(result, &copied)
		}
	}
	return result, nil
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func TestRenew_AdvancesPeriodFromCurrentEnd(t *testing.T) {
	repo := newMemSubscriptionRepo()
	clock := &fixedClock{now: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	service, err := NewService(repo, clock)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	sub, err := service.Create(context.Background(), "tenant-1", "unit-1", "residential-basic", decimal.NewFromInt(29), "EUR", 30)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	firstEnd := sub.CurrentPeriodEnd

	// Renew before the period lapses: next period starts where this one ends.
	clock.now = clock.now.AddDate(0, 0, 25)
	renewed, err := service.Renew(context.Background(), "tenant-1", sub.ID)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if !renewed.CurrentPeriodStart.Equal(firstEnd) {
		t.Fatalf("expected period start %v, got %v", firstEnd, renewed.CurrentPeriodStart)
	}
	if !renewed.CurrentPeriodEnd.Equal(firstEnd.AddDate(0, 0, 30)) {
		t.Fatalf("expected period end %v, got %v", firstEnd.AddDate(0, 0, 30), renewed.CurrentPeriodEnd)
	}
}

func TestRenew_LateRenewalStartsAtRenewalTime(t *testing.T) {
	repo := newMemSubscriptionRepo()
	clock := &fixedClock{now: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	service, _ := NewService(repo, clock)

	sub, _ := service.Create(context.Background(), "tenant-1", "unit-1", "residential-basic", decimal.NewFromInt(29), "EUR", 30)

	// Period lapses and the sweep flags it.
	clock.now = sub.CurrentPeriodEnd.AddDate(0, 0, 10)
	flagged, err := service.SweepLapsed(context.Background())
	if err != nil {
		t.Fatalf("SweepLapsed: %v", err)
	}
	if flagged != 1 {
		t.Fatalf("expected 1 flagged subscription, got %d", flagged)
	}

	renewed, err := service.Renew(context.Background(), "tenant-1", sub.ID)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if renewed.Status != subscriptions.StatusActive {
		t.Fatalf("expected active after renewal, got %s", renewed.Status)
	}
	if !renewed.CurrentPeriodStart.Equal(clock.now) {
		t.Fatalf("expected late renewal to start at %v, got %v", clock.now, renewed.CurrentPeriodStart)
	}
}

func TestCancel_IsTerminal(t *testing.T) {
	repo := newMemSubscriptionRepo()
	clock := &fixedClock{now: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	service, _ := NewService(repo, clock)

	sub, _ := service.Create(context.Background(), "tenant-1", "unit-1", "residential-basic", decimal.NewFromInt(29), "EUR", 30)

	cancelled, err := service.Cancel(context.Background(), "tenant-1", sub.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != subscriptions.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Fatal("expected cancelled_at to be set")
	}

	if _, err := service.Renew(context.Background(), "tenant-1", sub.ID); !errors.Is(err, subscriptions.ErrCancelled) {
		t.Fatalf("expected ErrCancelled on renew, got %v", err)
	}
	if _, err := service.Cancel(context.Background(), "tenant-1", sub.ID); !errors.Is(err, subscriptions.ErrCancelled) {
		t.Fatalf("expected ErrCancelled on second cancel, got %v", err)
	}
}

func TestGet_ScopedToTenant(t *testing.T) {
	repo := newMemSubscriptionRepo()
	clock := &fixedClock{now: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	service, _ := NewService(repo, clock)

	sub, _ := service.Create(context.Background(), "tenant-1", "unit-1", "residential-basic", decimal.NewFromInt(29), "EUR", 30)

	if _, err := service.Get(context.Background(), "tenant-2", sub.ID); !errors.Is(err, subscriptions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign tenant, got %v", err)
	}
}

func TestCreate_RejectsNonPositivePeriod(t *testing.T) {
	repo := newMemSubscriptionRepo()
	service, _ := NewService(repo, &fixedClock{now: time.Now()})

	_, err := service.Create(context.Background(), "tenant-1", "unit-1", "residential-basic", decimal.NewFromInt(29), "EUR", 0)
	if !errors.Is(err, subscriptions.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
