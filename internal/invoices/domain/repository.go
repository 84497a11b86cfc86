package invoices

import (
	"context"
	"time"
)

// Repository persists invoices and their line items.
type Repository interface {
	// SaveWithLines inserts an invoice together with its line items.
	SaveWithLines(ctx context.Context, invoice *Invoice, lines []LineItem) error
	Update(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, tenantID, id string) (*Invoice, error)
	ListLines(ctx context.Context, tenantID, invoiceID string) ([]LineItem, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Invoice, error)
	ListByMeter(ctx context.Context, tenantID, meterID string) ([]*Invoice, error)
	// LatestForPeriod returns the highest-version invoice covering the
	// exact period, or nil.
	LatestForPeriod(ctx context.Context, tenantID, meterID string, periodStart, periodEnd time.Time) (*Invoice, error)
}
