package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple postings. Entries are append-only: corrections happen through
// reversing entries, never through mutation of committed postings.
type JournalEntry struct {
	EntryID          string      `json:"entryID"`    // Primary Key (UUID)
	TenantID         string      `json:"tenantID"`   // FK -> tenants.tenant_id (Not Null)
	PeriodID         string      `json:"periodID"`   // FK -> accounting_periods.period_id (Not Null)
	SequenceNo       int64       `json:"sequenceNo"` // Tenant-scoped monotonic commit sequence
	EntryDate        time.Time   `json:"entryDate"`  // Effective date of the event
	Description      string      `json:"description"`
	CurrencyCode     string      `json:"currencyCode"` // Single currency per entry (Not Null)
	Status           EntryStatus `json:"status"`       // Default: POSTED
	OriginalEntryID  *string     `json:"originalEntryID,omitempty"`  // Set on reversing entries
	ReversingEntryID *string     `json:"reversingEntryID,omitempty"` // Set on entries that have been reversed
	Amount           decimal.Decimal `json:"amount"` // Total of the debit side; the economic value of the entry
	Postings         []Posting   `json:"postings,omitempty"`
	AuditFields
}

// IsReversal reports whether the entry reverses another entry.
func (e JournalEntry) IsReversal() bool {
	return e.OriginalEntryID != nil
}

// TotalDebits returns the sum of all debit postings.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		if p.Side == Debit {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// TotalCredits returns the sum of all credit postings.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		if p.Side == Credit {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// IsBalanced reports whether the debit and credit sides sum equal, exactly.
func (e JournalEntry) IsBalanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}
