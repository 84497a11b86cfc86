package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	subscriptions "utility-cloud/internal/subscriptions/domain"
)

// SubscriptionRepository persists subscriptions.
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository constructs a repository.
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, tenant_id, unit_id, plan_name, amount, currency, period_days,
status, current_period_start, current_period_end, cancelled_at, created_at, updated_at`

// Create inserts a subscription.
func (r *SubscriptionRepository) Create(ctx context.Context, s *subscriptions.Subscription) error {
	if r == nil || r.db == nil {
		return errors.New("subscription repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO subscriptions (`+subscriptionColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.TenantID, s.UnitID, s.PlanName, s.Amount, s.Currency, s.PeriodDays,
		s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, nullTime(s.CancelledAt),
		s.CreatedAt, s.UpdatedAt)
	return err
}

// Update rewrites the mutable subscription columns.
func (r *SubscriptionRepository) Update(ctx context.Context, s *subscriptions.Subscription) error {
	if r == nil || r.db == nil {
		return errors.New("subscription repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE subscriptions
SET status = $1, current_period_start = $2, current_period_end = $3,
    cancelled_at = $4, updated_at = $5
WHERE id = $6 AND tenant_id = $7`,
		s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd,
		nullTime(s.CancelledAt), s.UpdatedAt, s.ID, s.TenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return subscriptions.ErrNotFound
	}
	return nil
}

// FindByID fetches one subscription scoped to the tenant. Missing rows return nil.
func (r *SubscriptionRepository) FindByID(ctx context.Context, tenantID, id string) (*subscriptions.Subscription, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscription repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE id = $1 AND tenant_id = $2
LIMIT 1`, id, tenantID)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListByTenant returns the tenant's subscriptions, oldest first.
func (r *SubscriptionRepository) ListByTenant(ctx context.Context, tenantID string) ([]*subscriptions.Subscription, error) {
	return r.list(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE tenant_id = $1
ORDER BY created_at ASC`, tenantID)
}

// ListLapsed returns active subscriptions whose period ended before cutoff.
func (r *SubscriptionRepository) ListLapsed(ctx context.Context, cutoff time.Time) ([]*subscriptions.Subscription, error) {
	return r.list(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE status = 'active' AND current_period_end < $1
ORDER BY current_period_end ASC`, cutoff)
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]*subscriptions.Subscription, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("subscription repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*subscriptions.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*subscriptions.Subscription, error) {
	var (
		sub         subscriptions.Subscription
		cancelledAt sql.NullTime
	)
	err := row.Scan(&sub.ID, &sub.TenantID, &sub.UnitID, &sub.PlanName, &sub.Amount, &sub.Currency,
		&sub.PeriodDays, &sub.Status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&cancelledAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		sub.CancelledAt = cancelledAt.Time
	}
	return &sub, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
