package repositories

import (
	"context"
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerRepositoryFacade defines the persistence operations of the
// append-only ledger store. Every method takes the tenant identifier as its
// first parameter; there is no implicit or default tenant.
type LedgerRepositoryFacade interface {
	// AppendEntry persists a fully-validated entry and its postings as one
	// atomic unit, assigns the tenant-scoped commit sequence number, applies
	// the net balance changes to the touched accounts, and returns the
	// committed entry with running balances populated. The target period's
	// status is re-checked inside the store transaction; if the period
	// stopped accepting postings between validation and commit the append
	// fails with apperrors.ErrConcurrentModification and nothing is written.
	//
	// When entry.OriginalEntryID is set, the append is a reversal: the
	// original entry is flipped to REVERSED and linked in the same atomic
	// unit. If the original is no longer in POSTED status the append fails
	// with apperrors.ErrConflict and nothing is written, so two racing
	// reversals can never both commit.
	AppendEntry(ctx context.Context, tenantID string, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) (*domain.JournalEntry, error)

	// FindEntryByID retrieves a committed entry without its postings.
	FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)

	// FindPostingsByEntryID retrieves the postings of a committed entry.
	FindPostingsByEntryID(ctx context.Context, tenantID string, entryID string) ([]domain.Posting, error)

	// ListEntries produces one page of a period's entries ordered by commit
	// sequence number. The returned token restarts the listing after the
	// last entry of the page.
	ListEntries(ctx context.Context, tenantID string, periodID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// GetAccountBalance sums all postings of the account up to and including
	// asOf, under at least read-committed isolation.
	GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time) (decimal.Decimal, error)

	// SumAccountActivity aggregates debit and credit totals per account for
	// all postings within the given period.
	SumAccountActivity(ctx context.Context, tenantID string, periodID string) ([]domain.AccountActivity, error)

	// SumLedgerTotals returns total debits and total credits across the
	// tenant's entire ledger, all periods included.
	SumLedgerTotals(ctx context.Context, tenantID string) (debits decimal.Decimal, credits decimal.Decimal, err error)
}
