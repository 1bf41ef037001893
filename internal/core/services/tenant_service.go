package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
)

// tenantService is the single chokepoint for tenant context. Every ledger
// operation authorizes through it before any tenant data is touched, which
// is what structurally prevents cross-tenant leakage.
type tenantService struct {
	tenantRepo portsrepo.TenantRepositoryFacade
}

// NewTenantService creates a new TenantService.
func NewTenantService(tenantRepo portsrepo.TenantRepositoryFacade) portssvc.TenantSvcFacade {
	return &tenantService{tenantRepo: tenantRepo}
}

var _ portssvc.TenantSvcFacade = (*tenantService)(nil)

// CreateTenant onboards a new school and makes the creator its admin.
func (s *tenantService) CreateTenant(ctx context.Context, req dto.CreateTenantRequest, creatorUserID string) (*domain.Tenant, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if creatorUserID == "" {
		return nil, fmt.Errorf("%w: creator user is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	tenant := domain.Tenant{
		TenantID:            uuid.NewString(),
		Name:                req.Name,
		Description:         req.Description,
		DefaultCurrencyCode: req.DefaultCurrencyCode,
		IsActive:            true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.tenantRepo.SaveTenant(ctx, tenant); err != nil {
		logger.Error("Failed to save tenant", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}

	membership := domain.TenantUser{
		UserID:   creatorUserID,
		TenantID: tenant.TenantID,
		Role:     domain.RoleAdmin,
		JoinedAt: now,
	}
	if err := s.tenantRepo.AddUserToTenant(ctx, tenant.TenantID, membership); err != nil {
		logger.Error("Failed to add creator to tenant", slog.String("error", err.Error()), slog.String("tenant_id", tenant.TenantID))
		return nil, fmt.Errorf("failed to add creator to tenant: %w", err)
	}

	logger.Info("Tenant created", slog.String("tenant_id", tenant.TenantID))
	return &tenant, nil
}

// FindTenantByID returns the tenant if the user is a member of it.
func (s *tenantService) FindTenantByID(ctx context.Context, tenantID string, userID string) (*domain.Tenant, error) {
	if err := s.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.tenantRepo.FindTenantByID(ctx, tenantID)
}

// ListUserTenants returns all active tenants the user belongs to.
func (s *tenantService) ListUserTenants(ctx context.Context, userID string) ([]domain.Tenant, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", apperrors.ErrValidation)
	}
	return s.tenantRepo.ListTenantsByUser(ctx, userID)
}

// DeactivateTenant disables a tenant. Admin only.
func (s *tenantService) DeactivateTenant(ctx context.Context, tenantID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleAdmin); err != nil {
		return err
	}

	tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
	if err != nil {
		return err
	}

	tenant.IsActive = false
	tenant.LastUpdatedAt = time.Now().UTC()
	tenant.LastUpdatedBy = userID

	if err := s.tenantRepo.UpdateTenant(ctx, *tenant); err != nil {
		logger.Error("Failed to deactivate tenant", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return fmt.Errorf("failed to deactivate tenant: %w", err)
	}

	logger.Info("Tenant deactivated", slog.String("tenant_id", tenantID))
	return nil
}

// AddUserToTenant grants a user a role within the tenant. Admin only.
func (s *tenantService) AddUserToTenant(ctx context.Context, tenantID string, addingUserID string, req dto.AddTenantUserRequest) error {
	if err := s.AuthorizeUserAction(ctx, addingUserID, tenantID, domain.RoleAdmin); err != nil {
		return err
	}

	membership := domain.TenantUser{
		UserID:   req.UserID,
		TenantID: tenantID,
		Role:     req.Role,
		JoinedAt: time.Now().UTC(),
	}
	return s.tenantRepo.AddUserToTenant(ctx, tenantID, membership)
}

// AuthorizeUserAction verifies tenant context and the user's role within the
// tenant. An empty tenant ID is always a programming error at the call site,
// reported as ErrMissingTenantContext; there is no fallback tenant.
func (s *tenantService) AuthorizeUserAction(ctx context.Context, userID string, tenantID string, requiredRole domain.TenantRole) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if tenantID == "" {
		return apperrors.ErrMissingTenantContext
	}
	if userID == "" {
		return fmt.Errorf("%w: user identity is required", apperrors.ErrForbidden)
	}

	tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		logger.Error("Failed to look up tenant for authorization", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return fmt.Errorf("failed to look up tenant: %w", err)
	}
	if !tenant.IsActive {
		return fmt.Errorf("%w: tenant is disabled", apperrors.ErrForbidden)
	}

	membership, err := s.tenantRepo.FindTenantUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Not a member: indistinguishable from no such tenant.
			return apperrors.ErrForbidden
		}
		logger.Error("Failed to look up tenant membership", slog.String("error", err.Error()), slog.String("tenant_id", tenantID))
		return fmt.Errorf("failed to look up membership: %w", err)
	}

	if !membership.Role.Allows(requiredRole) {
		logger.Warn("Insufficient role for action", slog.String("tenant_id", tenantID), slog.String("role", string(membership.Role)), slog.String("required", string(requiredRole)))
		return apperrors.ErrForbidden
	}

	return nil
}

// RequireWritableLedger fails when the tenant's ledger has been halted by an
// integrity violation. Halted ledgers reject every write until manual audit.
func (s *tenantService) RequireWritableLedger(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return apperrors.ErrMissingTenantContext
	}

	tenant, err := s.tenantRepo.FindTenantByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.LedgerHalted {
		return fmt.Errorf("%w: ledger writes are halted pending manual audit", apperrors.ErrLedgerIntegrityViolation)
	}
	return nil
}
