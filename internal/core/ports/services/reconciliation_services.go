package services

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// ReconciliationSvcFacade manages accounting period lifecycle and the
// ledger-wide consistency checks that anchor period close.
type ReconciliationSvcFacade interface {
	CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context, tenantID string, userID string) ([]domain.AccountingPeriod, error)

	// ClosePeriod drives the OPEN -> CLOSING -> CLOSED transition,
	// snapshotting closing balances on the way. Closing an already-closed
	// period is a no-op success.
	ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) (domain.PeriodStatus, error)

	// ReopenPeriod is an administrative action that records an audit event
	// before the period accepts postings again.
	ReopenPeriod(ctx context.Context, tenantID string, periodID string, reason string, userID string) error

	// ComputeTrialBalance aggregates per-account activity for the period and
	// asserts the global double-entry invariant over the whole tenant
	// ledger. A violation halts the tenant's ledger and surfaces as
	// apperrors.ErrLedgerIntegrityViolation.
	ComputeTrialBalance(ctx context.Context, tenantID string, periodID string, userID string) (*domain.TrialBalanceReport, error)

	// GetFinancialSummary derives the period's revenue/expense summary from
	// committed postings.
	GetFinancialSummary(ctx context.Context, tenantID string, periodID string, userID string) (*domain.FinancialSummary, error)
}
