package services

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// TenantSvcFacade is the tenant isolation chokepoint. Every ledger operation
// flows through AuthorizeUserAction before touching tenant data, and the
// facade rejects calls that arrive without a tenant identifier.
type TenantSvcFacade interface {
	CreateTenant(ctx context.Context, req dto.CreateTenantRequest, creatorUserID string) (*domain.Tenant, error)
	FindTenantByID(ctx context.Context, tenantID string, userID string) (*domain.Tenant, error)
	ListUserTenants(ctx context.Context, userID string) ([]domain.Tenant, error)
	DeactivateTenant(ctx context.Context, tenantID string, userID string) error

	AddUserToTenant(ctx context.Context, tenantID string, addingUserID string, req dto.AddTenantUserRequest) error

	// AuthorizeUserAction verifies the tenant identifier is present, the
	// tenant exists and is active, and the user holds at least the required
	// role. Fails with ErrMissingTenantContext on an empty tenant ID and
	// ErrForbidden on insufficient role.
	AuthorizeUserAction(ctx context.Context, userID string, tenantID string, requiredRole domain.TenantRole) error

	// RequireWritableLedger additionally fails with
	// ErrLedgerIntegrityViolation when the tenant's ledger has been halted.
	RequireWritableLedger(ctx context.Context, tenantID string) error
}
