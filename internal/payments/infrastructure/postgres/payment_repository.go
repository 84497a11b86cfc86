package postgres

import (
	"context"
	"database/sql"
	"errors"

	payments "utility-cloud/internal/payments/domain"
)

// PaymentRepository persists payments.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, tenant_id, invoice_id, amount, method, reference, received_at, created_at`

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, p *payments.Payment) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payments (`+paymentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.TenantID, p.InvoiceID, p.Amount, string(p.Method), p.Reference, p.ReceivedAt, p.CreatedAt)
	return err
}

// ListByInvoice returns payments applied to one invoice, oldest first.
func (r *PaymentRepository) ListByInvoice(ctx context.Context, tenantID, invoiceID string) ([]*payments.Payment, error) {
	return r.list(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE tenant_id = $1 AND invoice_id = $2
ORDER BY received_at ASC`, tenantID, invoiceID)
}

// ListByTenant returns all payments of a tenant, newest first.
func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*payments.Payment, error) {
	return r.list(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE tenant_id = $1
ORDER BY received_at DESC`, tenantID)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*payments.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*payments.Payment
	for rows.Next() {
		var (
			payment payments.Payment
			method  string
		)
		err := rows.Scan(&payment.ID, &payment.TenantID, &payment.InvoiceID, &payment.Amount,
			&method, &payment.Reference, &payment.ReceivedAt, &payment.CreatedAt)
		if err != nil {
			return nil, err
		}
		payment.Method = payments.Method(method)
		result = append(result, &payment)
	}
	return result, rows.Err()
}
