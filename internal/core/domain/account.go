package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the closed set of account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalance returns the side on which the account type naturally
// increases. Asset and Expense accounts increase on debit; Liability, Equity
// and Revenue accounts increase on credit.
func (t AccountType) NormalBalance() PostingSide {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// Account represents one account in a tenant's chart of accounts.
// AccountType and CurrencyCode are immutable once the account has been
// referenced by a committed entry; name and description stay editable.
type Account struct {
	AccountID    string          `json:"accountID"`    // Primary Key (UUID)
	TenantID     string          `json:"tenantID"`     // FK -> tenants.tenant_id (Not Null)
	Code         string          `json:"code"`         // Short ledger code, unique per tenant
	Name         string          `json:"name"`         // User-defined name
	AccountType  AccountType     `json:"accountType"`  // ASSET, LIABILITY, etc.
	CurrencyCode string          `json:"currencyCode"` // FK -> currencies.currency_code (Not Null)
	Description  string          `json:"description"`  // Nullable user description
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"` // Cached running balance; postings remain the source of truth
	AuditFields
}
