package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "utility-cloud/internal/billing/domain"
)

// TariffRepository persists tariffs with their configuration as JSONB.
type TariffRepository struct {
	db *sql.DB
}

// NewTariffRepository constructs a repository.
func NewTariffRepository(db *sql.DB) *TariffRepository {
	return &TariffRepository{db: db}
}

// Create inserts a tariff.
func (r *TariffRepository) Create(ctx context.Context, t *billing.Tariff) error {
	if r == nil || r.db == nil {
		return errors.New("tariff repo: nil db")
	}
	configuration, err := t.MarshalConfiguration()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO tariffs (id, tenant_id, name, type, currency, configuration, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.TenantID, t.Name, string(t.Type), t.Currency, configuration, t.Active, t.CreatedAt, t.UpdatedAt)
	return err
}

// Update rewrites a tariff row.
func (r *TariffRepository) Update(ctx context.Context, t *billing.Tariff) error {
	if r == nil || r.db == nil {
		return errors.New("tariff repo: nil db")
	}
	configuration, err := t.MarshalConfiguration()
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE tariffs
SET name = $1, type = $2, currency = $3, configuration = $4, active = $5, updated_at = $6
WHERE id = $7 AND tenant_id = $8`,
		t.Name, string(t.Type), t.Currency, configuration, t.Active, t.UpdatedAt, t.ID, t.TenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrTariffNotFound
	}
	return nil
}

// FindByID fetches one tariff scoped to the tenant. Missing rows return nil.
func (r *TariffRepository) FindByID(ctx context.Context, tenantID, id string) (*billing.Tariff, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tariff repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, name, type, currency, configuration, active, created_at, updated_at
FROM tariffs
WHERE id = $1 AND tenant_id = $2
LIMIT 1`, id, tenantID)

	tariff, err := scanTariff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tariff, nil
}

// ListByTenant returns all tariffs of a tenant.
func (r *TariffRepository) ListByTenant(ctx context.Context, tenantID string) ([]*billing.Tariff, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tariff repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, name, type, currency, configuration, active, created_at, updated_at
FROM tariffs
WHERE tenant_id = $1
ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Tariff
	for rows.Next() {
		tariff, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tariff)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTariff(row rowScanner) (*billing.Tariff, error) {
	var (
		t             billing.Tariff
		typ           string
		configuration []byte
	)
	if err := row.Scan(&t.ID, &t.TenantID, &t.Name, &typ, &t.Currency, &configuration, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = billing.TariffType(typ)
	if err := t.UnmarshalConfiguration(configuration); err != nil {
		return nil, err
	}
	return &t, nil
}
