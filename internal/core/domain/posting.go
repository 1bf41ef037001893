package domain

import (
	"fmt"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// PostingSide indicates whether a posting line is a Debit or a Credit.
type PostingSide string

const (
	Debit  PostingSide = "DEBIT"
	Credit PostingSide = "CREDIT"
)

// Opposite returns the flipped side, used when building reversing entries.
func (s PostingSide) Opposite() PostingSide {
	if s == Debit {
		return Credit
	}
	return Debit
}

// Posting represents a single line item within a JournalEntry, affecting one
// account. Amount is always strictly positive; the direction is carried by
// Side, never by the numeric sign.
type Posting struct {
	PostingID      string          `json:"postingID"` // Primary Key (UUID)
	EntryID        string          `json:"entryID"`   // FK -> journal_entries.entry_id (Not Null)
	TenantID       string          `json:"tenantID"`  // FK -> tenants.tenant_id (Not Null)
	AccountID      string          `json:"accountID"` // FK -> accounts.account_id (Not Null)
	Amount         decimal.Decimal `json:"amount"`    // Strictly positive
	Side           PostingSide     `json:"side"`      // DEBIT or CREDIT (Not Null)
	CurrencyCode   string          `json:"currencyCode"`
	Memo           string          `json:"memo"`           // Nullable
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this posting
	AuditFields
}

// Validate checks the invariants a single posting must satisfy regardless of
// the entry it belongs to. The precision argument is the minor-unit precision
// of the posting currency.
func (p Posting) Validate(precision int32) error {
	if p.AccountID == "" {
		return fmt.Errorf("%w: posting %s has no account", apperrors.ErrValidation, p.PostingID)
	}
	if p.Side != Debit && p.Side != Credit {
		return fmt.Errorf("%w: posting %s has invalid side %q", apperrors.ErrValidation, p.PostingID, p.Side)
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: posting %s amount %s must be strictly positive", apperrors.ErrInvalidAmount, p.PostingID, p.Amount.String())
	}
	if p.Amount.Exponent() < -precision {
		return fmt.Errorf("%w: posting %s amount %s exceeds %d decimal places", apperrors.ErrInvalidAmount, p.PostingID, p.Amount.String(), precision)
	}
	return nil
}
