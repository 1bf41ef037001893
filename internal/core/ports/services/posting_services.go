package services

import (
	"context"
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// PostingSvcFacade is the correctness gate for the ledger: it validates and
// commits double-entry journal entries. All operations are scoped to exactly
// one tenant, named explicitly on every call.
type PostingSvcFacade interface {
	// PostEntry validates a draft entry and commits it atomically. On
	// success the returned entry carries its assigned identifier, sequence
	// number, and the resulting balance of every touched account.
	PostEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error)

	// ReverseEntry creates a new entry with every posting's side flipped,
	// linked to the original. The original entry is never deleted.
	ReverseEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error)

	// GetEntryByID retrieves a committed entry with its postings.
	GetEntryByID(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error)

	// ListEntries pages through a period's entries in commit order.
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams, userID string) (*dto.ListEntriesResponse, error)

	// GetAccountBalance returns the account's balance as of the given time,
	// computed from committed postings.
	GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time, userID string) (domain.Money, error)
}
