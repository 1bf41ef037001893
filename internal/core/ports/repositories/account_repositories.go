package repositories

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// AccountRepositoryFacade defines the persistence operations for Accounts.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, tenantID string, account domain.Account) error
	FindAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)
	// FindAccountsByIDs returns the subset of requested accounts that exist
	// under the tenant, keyed by account ID. Accounts owned by other tenants
	// are absent from the result, never returned.
	FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, tenantID string, account domain.Account) error
}
