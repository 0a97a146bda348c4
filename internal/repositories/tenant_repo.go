package repositories

import (
	"context"
	"errors"
	"fmt"

	"bizcore/internal/models"
	"bizcore/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TenantRepository is the registry of tenants. The registry itself is not
// tenant-scoped: it is read by the middleware and administrative paths,
// which run unrestricted.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	ListActiveIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	CountOwnedRows(ctx context.Context, id uuid.UUID) (int64, error)
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, subdomain, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.OwnerID)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, subdomain, status, owner_id, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Status, &tenant.OwnerID, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, name, subdomain, status, owner_id, created_at, updated_at
		FROM tenants
		WHERE subdomain = $1
	`
	err := r.db.QueryRow(ctx, query, subdomain).Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Status, &tenant.OwnerID, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, subdomain = $2, status = $3, owner_id = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.Subdomain, tenant.Status, tenant.OwnerID, tenant.ID)
	return err
}

// Delete removes a registry row. It refuses while any business row still
// references the tenant; deactivation is the supported path for live tenants.
func (r *tenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	owned, err := r.CountOwnedRows(ctx, id)
	if err != nil {
		return err
	}
	if owned > 0 {
		return fmt.Errorf("%w: %d rows", tenancy.ErrTenantHasData, owned)
	}
	_, err = r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT id, name, subdomain, status, owner_id, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Status, &tenant.OwnerID, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) ListActiveIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM tenants
		WHERE status = 'active'
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountOwnedRows sums the business rows referencing the tenant across every
// tenant-scoped table. Must run unrestricted, otherwise the bound session
// would hide other rows and undercount.
func (r *tenantRepo) CountOwnedRows(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		SELECT
			(SELECT count(*) FROM users WHERE tenant_id = $1) +
			(SELECT count(*) FROM products WHERE tenant_id = $1) +
			(SELECT count(*) FROM employees WHERE tenant_id = $1) +
			(SELECT count(*) FROM invoices WHERE tenant_id = $1) +
			(SELECT count(*) FROM audit_logs WHERE tenant_id = $1)
	`
	var total int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
