package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	subscriptions "utility-cloud/internal/subscriptions/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service handles subscription use cases.
type Service struct {
	repo  subscriptions.Repository
	clock Clock
}

// NewService constructs the subscriptions application service.
func NewService(repo subscriptions.Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("subscriptions service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, clock: clock}, nil
}

// Create opens an active subscription with its first period started.
func (s *Service) Create(ctx context.Context, tenantID, unitID, planName string, amount decimal.Decimal, currency string, periodDays int) (*subscriptions.Subscription, error) {
	if s == nil {
		return nil, errors.New("subscriptions service: nil service")
	}
	if tenantID == "" || unitID == "" {
		return nil, errors.New("subscriptions service: tenant and unit required")
	}
	if strings.TrimSpace(planName) == "" {
		return nil, errors.New("subscriptions service: empty plan name")
	}
	if amount.IsNegative() {
		return nil, errors.New("subscriptions service: negative amount")
	}
	if periodDays <= 0 {
		return nil, subscriptions.ErrInvalidPeriod
	}
	if currency == "" {
		currency = "EUR"
	}

	now := s.clock.Now().UTC()
	sub := &subscriptions.Subscription{
		ID:                 newSubscriptionID(),
		TenantID:           tenantID,
		UnitID:             unitID,
		PlanName:           strings.TrimSpace(planName),
		Amount:             amount,
		Currency:           currency,
		PeriodDays:         periodDays,
		Status:             subscriptions.StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(time.Duration(periodDays) * 24 * time.Hour),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Renew advances the billing period.
func (s *Service) Renew(ctx context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	sub, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := sub.Renew(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel terminates a subscription.
func (s *Service) Cancel(ctx context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	sub, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := sub.Cancel(s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SweepLapsed marks active subscriptions with an ended period past_due.
// Returns how many were flagged.
func (s *Service) SweepLapsed(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("subscriptions service: nil service")
	}
	now := s.clock.Now().UTC()
	lapsed, err := s.repo.ListLapsed(ctx, now)
	if err != nil {
		return 0, err
	}
	flagged := 0
	for _, sub := range lapsed {
		if err := sub.MarkPastDue(now); err != nil {
			continue
		}
		if err := s.repo.Update(ctx, sub); err != nil {
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// Get fetches one subscription scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	return s.getOwned(ctx, tenantID, id)
}

// List returns the tenant's subscriptions.
func (s *Service) List(ctx context.Context, tenantID string) ([]*subscriptions.Subscription, error) {
	if s == nil {
		return nil, errors.New("subscriptions service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("subscriptions service: empty tenant id")
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *Service) getOwned(ctx context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	if s == nil {
		return nil, errors.New("subscriptions service: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("subscriptions service: empty tenant id")
	}
	sub, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", subscriptions.ErrNotFound, id)
	}
	return sub, nil
}

func newSubscriptionID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "sub-" + hex.EncodeToString(buf)
}
