package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive    = "active"
	StatusPastDue   = "past_due"
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound indicates the subscription does not exist.
	ErrNotFound = errors.New("subscriptions: subscription not found")
	// ErrCancelled indicates an operation on a cancelled subscription.
	ErrCancelled = errors.New("subscriptions: subscription is cancelled")
	// ErrInvalidPeriod indicates a non-positive billing period.
	ErrInvalidPeriod = errors.New("subscriptions: invalid billing period")
)

// Subscription is a recurring service plan bound to a unit.
type Subscription struct {
	ID                 string
	TenantID           string
	UnitID             string
	PlanName           string
	Amount             decimal.Decimal
	Currency           string
	PeriodDays         int
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelledAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Renew advances the billing period and reactivates a past_due
// subscription. Cancel is terminal.
func (s *Subscription) Renew(at time.Time) error {
	if s.Status == StatusCancelled {
		return ErrCancelled
	}
	if s.PeriodDays <= 0 {
		return ErrInvalidPeriod
	}
	start := s.CurrentPeriodEnd
	if start.IsZero() || at.After(start) {
		start = at.UTC()
	}
	s.CurrentPeriodStart = start
	s.CurrentPeriodEnd = start.Add(time.Duration(s.PeriodDays) * 24 * time.Hour)
	s.Status = StatusActive
	s.UpdatedAt = at.UTC()
	return nil
}

// MarkPastDue flags an active subscription whose period lapsed unpaid.
func (s *Subscription) MarkPastDue(at time.Time) error {
	if s.Status == StatusCancelled {
		return ErrCancelled
	}
	s.Status = StatusPastDue
	s.UpdatedAt = at.UTC()
	return nil
}

// Cancel terminates the subscription.
func (s *Subscription) Cancel(at time.Time) error {
	if s.Status == StatusCancelled {
		return ErrCancelled
	}
	s.Status = StatusCancelled
	s.CancelledAt = at.UTC()
	s.UpdatedAt = at.UTC()
	return nil
}

// Repository persists subscriptions.
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Update(ctx context.Context, s *Subscription) error
	FindByID(ctx context.Context, tenantID, id string) (*Subscription, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Subscription, error)
	// ListLapsed returns active subscriptions whose period ended before
	// the cutoff.
	ListLapsed(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}
