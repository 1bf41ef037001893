package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
)

// PgxTenantRepository persists tenants and tenant memberships.
type PgxTenantRepository struct {
	BaseRepository
}

// newPgxTenantRepository creates a new repository for tenant data.
func newPgxTenantRepository(pool *pgxpool.Pool) portsrepo.TenantRepositoryFacade {
	return &PgxTenantRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.TenantRepositoryFacade = (*PgxTenantRepository)(nil)

const tenantColumns = `
	tenant_id, name, description, default_currency_code, is_active, ledger_halted,
	created_at, created_by, last_updated_at, last_updated_by
`

// SaveTenant inserts a new tenant. The sequence counter starts at zero.
func (r *PgxTenantRepository) SaveTenant(ctx context.Context, tenant domain.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `, last_sequence_no)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0);
	`
	_, err := r.Pool.Exec(ctx, query,
		tenant.TenantID,
		tenant.Name,
		tenant.Description,
		tenant.DefaultCurrencyCode,
		tenant.IsActive,
		tenant.LedgerHalted,
		tenant.CreatedAt,
		tenant.CreatedBy,
		tenant.LastUpdatedAt,
		tenant.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert tenant "+tenant.TenantID, err)
	}
	return nil
}

// FindTenantByID retrieves a tenant by ID.
func (r *PgxTenantRepository) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE tenant_id = $1;
	`
	tenant, err := scanTenant(r.Pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find tenant "+tenantID, err)
	}
	return tenant, nil
}

// UpdateTenant updates tenant metadata. The halt flag and sequence counter
// have dedicated paths and are not touched here.
func (r *PgxTenantRepository) UpdateTenant(ctx context.Context, tenant domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, description = $3, default_currency_code = $4, is_active = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE tenant_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		tenant.TenantID,
		tenant.Name,
		tenant.Description,
		tenant.DefaultCurrencyCode,
		tenant.IsActive,
		tenant.LastUpdatedAt,
		tenant.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update tenant "+tenant.TenantID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("tenant " + tenant.TenantID + " not found for update")
	}
	return nil
}

// ListTenantsByUser returns active tenants the user is a member of.
func (r *PgxTenantRepository) ListTenantsByUser(ctx context.Context, userID string) ([]domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants t
		JOIN tenant_users tu ON tu.tenant_id = t.tenant_id
		WHERE tu.user_id = $1 AND tu.role != $2 AND t.is_active = TRUE
		ORDER BY t.name;
	`
	rows, err := r.Pool.Query(ctx, query, userID, domain.RoleRemoved)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list tenants for user "+userID, err)
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		tenant, scanErr := scanTenant(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan tenant row", scanErr)
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating tenant rows", err)
	}
	return tenants, nil
}

// AddUserToTenant upserts a membership row.
func (r *PgxTenantRepository) AddUserToTenant(ctx context.Context, tenantID string, membership domain.TenantUser) error {
	query := `
		INSERT INTO tenant_users (tenant_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET role = EXCLUDED.role;
	`
	_, err := r.Pool.Exec(ctx, query, tenantID, membership.UserID, membership.Role, membership.JoinedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewNotFoundError("tenant or user not found for membership")
		}
		return apperrors.NewAppError(500, "failed to add user to tenant "+tenantID, err)
	}
	return nil
}

// FindTenantUser retrieves a membership row.
func (r *PgxTenantRepository) FindTenantUser(ctx context.Context, tenantID string, userID string) (*domain.TenantUser, error) {
	query := `
		SELECT tenant_id, user_id, role, joined_at
		FROM tenant_users
		WHERE tenant_id = $1 AND user_id = $2;
	`
	var tu domain.TenantUser
	err := r.Pool.QueryRow(ctx, query, tenantID, userID).Scan(&tu.TenantID, &tu.UserID, &tu.Role, &tu.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find tenant membership", err)
	}
	return &tu, nil
}

// SetLedgerHalted flags the tenant's ledger as halted. There is no inverse
// operation; recovery is a manual audit action directly on the database.
func (r *PgxTenantRepository) SetLedgerHalted(ctx context.Context, tenantID string, reason string, at time.Time) error {
	query := `
		UPDATE tenants
		SET ledger_halted = TRUE, halt_reason = $2, last_updated_at = $3
		WHERE tenant_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, reason, at)
	if err != nil {
		return apperrors.NewAppError(500, "failed to halt ledger for tenant "+tenantID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("tenant " + tenantID + " not found for halt")
	}
	return nil
}

// scanTenant reads one tenant row.
func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.TenantID,
		&t.Name,
		&t.Description,
		&t.DefaultCurrencyCode,
		&t.IsActive,
		&t.LedgerHalted,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
