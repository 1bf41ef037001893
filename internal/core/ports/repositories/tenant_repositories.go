package repositories

import (
	"context"
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// TenantRepositoryFacade defines the persistence operations for Tenants and
// tenant memberships.
type TenantRepositoryFacade interface {
	SaveTenant(ctx context.Context, tenant domain.Tenant) error
	FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
	UpdateTenant(ctx context.Context, tenant domain.Tenant) error
	ListTenantsByUser(ctx context.Context, userID string) ([]domain.Tenant, error)

	AddUserToTenant(ctx context.Context, tenantID string, membership domain.TenantUser) error
	FindTenantUser(ctx context.Context, tenantID string, userID string) (*domain.TenantUser, error)

	// SetLedgerHalted flags a tenant's ledger as halted after an integrity
	// violation. There is deliberately no automatic path that clears the
	// flag; recovery is a manual audit action.
	SetLedgerHalted(ctx context.Context, tenantID string, reason string, at time.Time) error
}
