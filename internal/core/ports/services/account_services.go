package services

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// AccountSvcFacade manages a tenant's chart of accounts.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, tenantID string, accountID string, userID string) (*domain.Account, error)
	// GetAccountsByIDs fetches a batch of accounts; every requested ID must
	// exist under the tenant or the call fails with ErrTenantMismatch.
	GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string, userID string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams, userID string) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error
}
