package domain

import "github.com/shopspring/decimal"

// AccountActivity is the raw debit/credit aggregate for one account within a
// period, as produced by the ledger store.
type AccountActivity struct {
	AccountID    string
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// TrialBalanceLine holds one account's debit and credit totals within a
// period, plus its closing balance expressed on the account's normal side.
type TrialBalanceLine struct {
	AccountID    string          `json:"accountID"`
	AccountCode  string          `json:"accountCode"`
	AccountName  string          `json:"accountName"`
	AccountType  AccountType     `json:"accountType"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	Balance      Money           `json:"balance"`
}

// TrialBalanceReport asserts that total debits equal total credits across a
// tenant's entire ledger as of the reported period.
type TrialBalanceReport struct {
	TenantID     string             `json:"tenantID"`
	PeriodID     string             `json:"periodID"`
	CurrencyCode string             `json:"currencyCode"`
	Lines        []TrialBalanceLine `json:"lines"`
	TotalDebits  decimal.Decimal    `json:"totalDebits"`  // Whole ledger, all periods
	TotalCredits decimal.Decimal    `json:"totalCredits"` // Whole ledger, all periods
	Balanced     bool               `json:"balanced"`
}

// FinancialSummary aggregates a period's activity for reporting: revenue and
// expense totals by account and the resulting net. Derived entirely from
// committed postings.
type FinancialSummary struct {
	TenantID         string                     `json:"tenantID"`
	PeriodID         string                     `json:"periodID"`
	CurrencyCode     string                     `json:"currencyCode"`
	TotalRevenue     decimal.Decimal            `json:"totalRevenue"`
	TotalExpenses    decimal.Decimal            `json:"totalExpenses"`
	NetResult        decimal.Decimal            `json:"netResult"`
	RevenueByAccount map[string]decimal.Decimal `json:"revenueByAccount"` // keyed by account code
	ExpenseByAccount map[string]decimal.Decimal `json:"expenseByAccount"` // keyed by account code
}
