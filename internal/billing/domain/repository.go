package billing

import "context"

// Repository persists tariffs.
type Repository interface {
	Create(ctx context.Context, t *Tariff) error
	Update(ctx context.Context, t *Tariff) error
	FindByID(ctx context.Context, tenantID, id string) (*Tariff, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Tariff, error)
}
