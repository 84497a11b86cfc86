package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	properties "utility-cloud/internal/properties/domain"
)

// PropertyRepository persists properties, units and meters.
type PropertyRepository struct {
	db *sql.DB
}

// NewPropertyRepository constructs a repository.
func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// CreateProperty inserts a property.
func (r *PropertyRepository) CreateProperty(ctx context.Context, p *properties.Property) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO properties (id, tenant_id, name, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.TenantID, p.Name, p.Address, p.CreatedAt, p.UpdatedAt)
	return err
}

// ListProperties returns all properties for a tenant.
func (r *PropertyRepository) ListProperties(ctx context.Context, tenantID string) ([]properties.Property, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, name, address, created_at, updated_at
FROM properties
WHERE tenant_id = $1
ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []properties.Property
	for rows.Next() {
		var p properties.Property
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// CreateUnit inserts a unit.
func (r *PropertyRepository) CreateUnit(ctx context.Context, u *properties.Unit) error {
	if r == nil || r.db == nil {
		return errors.New("property repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO units (id, tenant_id, property_id, label, occupant_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.TenantID, u.PropertyID, u.Label, u.OccupantID, u.CreatedAt, u.UpdatedAt)
	return err
}

// ListUnits returns units of a property.
func (r *PropertyRepository) ListUnits(ctx context.Context, tenantID, propertyID string) ([]properties.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("property repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, property_id, label, occupant_id, created_at, updated_at
FROM units
WHERE tenant_id = $1 AND property_id = $2
ORDER BY label ASC`, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []properties.Unit
	for rows.Next() {
		var u properties.Unit
		if err := rows.Scan(&u.ID, &u.TenantID, &u.PropertyID, &u.Label, &u.OccupantID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// MeterRepository persists meters.
type MeterRepository struct {
	db *sql.DB
}

// NewMeterRepository constructs a repository.
func NewMeterRepository(db *sql.DB) *MeterRepository {
	return &MeterRepository{db: db}
}

// Create inserts a meter.
func (r *MeterRepository) Create(ctx context.Context, m *properties.Meter) error {
	if r == nil || r.db == nil {
		return errors.New("meter repo: nil db")
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
INSERT INTO meters (id, tenant_id, unit_id, serial, service, tariff_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.TenantID, m.UnitID, m.Serial, m.Service, m.TariffID, m.CreatedAt, m.UpdatedAt)
	return err
}

// Get fetches a meter by id.
func (r *MeterRepository) Get(ctx context.Context, id string) (*properties.Meter, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("meter repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, unit_id, serial, service, tariff_id, created_at, updated_at
FROM meters
WHERE id = $1
LIMIT 1`, id)

	var m properties.Meter
	err := row.Scan(&m.ID, &m.TenantID, &m.UnitID, &m.Serial, &m.Service, &m.TariffID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByTenant returns all meters of a tenant.
func (r *MeterRepository) ListByTenant(ctx context.Context, tenantID string) ([]properties.Meter, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("meter repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, unit_id, serial, service, tariff_id, created_at, updated_at
FROM meters
WHERE tenant_id = $1
ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []properties.Meter
	for rows.Next() {
		var m properties.Meter
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UnitID, &m.Serial, &m.Service, &m.TariffID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// SetTariff reassigns the tariff a meter is billed under.
func (r *MeterRepository) SetTariff(ctx context.Context, tenantID, meterID, tariffID string) error {
	if r == nil || r.db == nil {
		return errors.New("meter repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE meters SET tariff_id = $1, updated_at = $2
WHERE id = $3 AND tenant_id = $4`,
		tariffID, time.Now().UTC(), meterID, tenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return properties.ErrNotFound
	}
	return nil
}
