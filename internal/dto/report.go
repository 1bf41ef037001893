package dto

import (
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TrialBalanceLineResponse is one account line of a trial balance report.
type TrialBalanceLineResponse struct {
	AccountID    string             `json:"accountID"`
	AccountCode  string             `json:"accountCode"`
	AccountName  string             `json:"accountName"`
	AccountType  domain.AccountType `json:"accountType"`
	TotalDebits  decimal.Decimal    `json:"totalDebits"`
	TotalCredits decimal.Decimal    `json:"totalCredits"`
	Balance      decimal.Decimal    `json:"balance"`
}

// TrialBalanceResponse is the full trial balance report for a period.
type TrialBalanceResponse struct {
	TenantID     string                     `json:"tenantID"`
	PeriodID     string                     `json:"periodID"`
	CurrencyCode string                     `json:"currencyCode"`
	Lines        []TrialBalanceLineResponse `json:"lines"`
	TotalDebits  decimal.Decimal            `json:"totalDebits"`
	TotalCredits decimal.Decimal            `json:"totalCredits"`
	Balanced     bool                       `json:"balanced"`
}

// ToTrialBalanceResponse converts a domain report to its DTO.
func ToTrialBalanceResponse(r *domain.TrialBalanceReport) TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = TrialBalanceLineResponse{
			AccountID:    l.AccountID,
			AccountCode:  l.AccountCode,
			AccountName:  l.AccountName,
			AccountType:  l.AccountType,
			TotalDebits:  l.TotalDebits,
			TotalCredits: l.TotalCredits,
			Balance:      l.Balance.Amount,
		}
	}
	return TrialBalanceResponse{
		TenantID:     r.TenantID,
		PeriodID:     r.PeriodID,
		CurrencyCode: r.CurrencyCode,
		Lines:        lines,
		TotalDebits:  r.TotalDebits,
		TotalCredits: r.TotalCredits,
		Balanced:     r.Balanced,
	}
}

// FinancialSummaryResponse is the per-period revenue/expense summary.
type FinancialSummaryResponse struct {
	TenantID         string                     `json:"tenantID"`
	PeriodID         string                     `json:"periodID"`
	CurrencyCode     string                     `json:"currencyCode"`
	TotalRevenue     decimal.Decimal            `json:"totalRevenue"`
	TotalExpenses    decimal.Decimal            `json:"totalExpenses"`
	NetResult        decimal.Decimal            `json:"netResult"`
	RevenueByAccount map[string]decimal.Decimal `json:"revenueByAccount"`
	ExpenseByAccount map[string]decimal.Decimal `json:"expenseByAccount"`
}

// ToFinancialSummaryResponse converts a domain summary to its DTO.
func ToFinancialSummaryResponse(s *domain.FinancialSummary) FinancialSummaryResponse {
	return FinancialSummaryResponse{
		TenantID:         s.TenantID,
		PeriodID:         s.PeriodID,
		CurrencyCode:     s.CurrencyCode,
		TotalRevenue:     s.TotalRevenue,
		TotalExpenses:    s.TotalExpenses,
		NetResult:        s.NetResult,
		RevenueByAccount: s.RevenueByAccount,
		ExpenseByAccount: s.ExpenseByAccount,
	}
}
