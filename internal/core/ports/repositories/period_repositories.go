package repositories

import (
	"context"
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// PeriodRepositoryFacade defines the persistence operations for
// AccountingPeriods and their audit events.
type PeriodRepositoryFacade interface {
	SavePeriod(ctx context.Context, tenantID string, period domain.AccountingPeriod) error
	FindPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.AccountingPeriod, error)
	// FindPeriodForDate locates the period whose [start, end) range contains
	// the given effective date.
	FindPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context, tenantID string) ([]domain.AccountingPeriod, error)

	// TransitionPeriodStatus performs a compare-and-set on the period
	// status. It fails with apperrors.ErrConcurrentModification when the
	// current status is not `from`, making close/reopen races explicit.
	// The OPEN->CLOSING transition additionally acts as a commit barrier:
	// it returns only after every entry admitted before the transition has
	// either committed or aborted.
	TransitionPeriodStatus(ctx context.Context, tenantID string, periodID string, from domain.PeriodStatus, to domain.PeriodStatus, updatedBy string, updatedAt time.Time) error

	SavePeriodEvent(ctx context.Context, tenantID string, event domain.PeriodEvent) error
	ListPeriodEvents(ctx context.Context, tenantID string, periodID string) ([]domain.PeriodEvent, error)

	// SavePeriodBalances stores the closing balance snapshot taken when a
	// period closes. Snapshots are derived data and may be overwritten by a
	// later close of the same period (after a reopen).
	SavePeriodBalances(ctx context.Context, tenantID string, balances []domain.PeriodBalance) error
	ListPeriodBalances(ctx context.Context, tenantID string, periodID string) ([]domain.PeriodBalance, error)
}
