package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	invoices "utility-cloud/internal/invoices/domain"
)

// InvoiceRepository persists invoices and their line items.
type InvoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository constructs a repository.
func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, tenant_id, meter_id, period_start, period_end, status, version,
total_consumption, total_amount, amount_paid, currency, void_reason,
created_at, updated_at, issued_at, paid_at, voided_at`

// SaveWithLines inserts an invoice and its line items in one transaction.
func (r *InvoiceRepository) SaveWithLines(ctx context.Context, invoice *invoices.Invoice, lines []invoices.LineItem) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO invoices (`+invoiceColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		invoice.ID, invoice.TenantID, invoice.MeterID, invoice.PeriodStart, invoice.PeriodEnd,
		invoice.Status, invoice.Version, invoice.TotalConsumption, invoice.TotalAmount,
		invoice.AmountPaid, invoice.Currency, invoice.VoidReason,
		invoice.CreatedAt, invoice.UpdatedAt, nullTime(invoice.IssuedAt), nullTime(invoice.PaidAt), nullTime(invoice.VoidedAt))
	if err != nil {
		return err
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
INSERT INTO invoice_lines (invoice_id, tenant_id, interval_start, interval_end, consumption, amount, strategy, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			line.InvoiceID, invoice.TenantID, line.IntervalStart, line.IntervalEnd,
			line.Consumption, line.Amount, line.Strategy, line.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update rewrites the mutable invoice columns.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *invoices.Invoice) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $1, amount_paid = $2, void_reason = $3, updated_at = $4,
    issued_at = $5, paid_at = $6, voided_at = $7
WHERE id = $8 AND tenant_id = $9`,
		invoice.Status, invoice.AmountPaid, invoice.VoidReason, invoice.UpdatedAt,
		nullTime(invoice.IssuedAt), nullTime(invoice.PaidAt), nullTime(invoice.VoidedAt),
		invoice.ID, invoice.TenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return invoices.ErrNotFound
	}
	return nil
}

// FindByID fetches one invoice scoped to the tenant. Missing rows return nil.
func (r *InvoiceRepository) FindByID(ctx context.Context, tenantID, id string) (*invoices.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE id = $1 AND tenant_id = $2
LIMIT 1`, id, tenantID)

	invoice, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListLines returns line items of an invoice ordered by interval start.
func (r *InvoiceRepository) ListLines(ctx context.Context, tenantID, invoiceID string) ([]invoices.LineItem, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT invoice_id, interval_start, interval_end, consumption, amount, strategy, created_at
FROM invoice_lines
WHERE invoice_id = $1 AND tenant_id = $2
ORDER BY interval_start ASC`, invoiceID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []invoices.LineItem
	for rows.Next() {
		var line invoices.LineItem
		err := rows.Scan(&line.InvoiceID, &line.IntervalStart, &line.IntervalEnd,
			&line.Consumption, &line.Amount, &line.Strategy, &line.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, line)
	}
	return result, rows.Err()
}

// ListByTenant returns all invoices of a tenant, newest first.
func (r *InvoiceRepository) ListByTenant(ctx context.Context, tenantID string) ([]*invoices.Invoice, error) {
	return r.list(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE tenant_id = $1
ORDER BY created_at DESC`, tenantID)
}

// ListByMeter returns invoices of a meter, newest first.
func (r *InvoiceRepository) ListByMeter(ctx context.Context, tenantID, meterID string) ([]*invoices.Invoice, error) {
	return r.list(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE tenant_id = $1 AND meter_id = $2
ORDER BY created_at DESC`, tenantID, meterID)
}

// LatestForPeriod returns the highest-version invoice for the exact
// period, or nil.
func (r *InvoiceRepository) LatestForPeriod(ctx context.Context, tenantID, meterID string, periodStart, periodEnd time.Time) (*invoices.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE tenant_id = $1 AND meter_id = $2 AND period_start = $3 AND period_end = $4
ORDER BY version DESC
LIMIT 1`, tenantID, meterID, periodStart, periodEnd)

	invoice, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *InvoiceRepository) list(ctx context.Context, query string, args ...any) ([]*invoices.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*invoices.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, invoice)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*invoices.Invoice, error) {
	var (
		invoice  invoices.Invoice
		issuedAt sql.NullTime
		paidAt   sql.NullTime
		voidedAt sql.NullTime
	)
	err := row.Scan(&invoice.ID, &invoice.TenantID, &invoice.MeterID, &invoice.PeriodStart, &invoice.PeriodEnd,
		&invoice.Status, &invoice.Version, &invoice.TotalConsumption, &invoice.TotalAmount,
		&invoice.AmountPaid, &invoice.Currency, &invoice.VoidReason,
		&invoice.CreatedAt, &invoice.UpdatedAt, &issuedAt, &paidAt, &voidedAt)
	if err != nil {
		return nil, err
	}
	if issuedAt.Valid {
		invoice.IssuedAt = issuedAt.Time
	}
	if paidAt.Valid {
		invoice.PaidAt = paidAt.Time
	}
	if voidedAt.Valid {
		invoice.VoidedAt = voidedAt.Time
	}
	return &invoice, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
