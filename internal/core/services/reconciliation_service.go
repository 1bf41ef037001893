package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
)

const snapshotPageSize = 200

// reconciliationService drives period lifecycle and the ledger-wide
// consistency checks that anchor period close.
type reconciliationService struct {
	periodRepo  portsrepo.PeriodRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	tenantRepo  portsrepo.TenantRepositoryFacade
	tenantSvc   portssvc.TenantSvcFacade
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	periodRepo portsrepo.PeriodRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	tenantRepo portsrepo.TenantRepositoryFacade,
	tenantSvc portssvc.TenantSvcFacade,
) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		periodRepo:  periodRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		tenantRepo:  tenantRepo,
		tenantSvc:   tenantSvc,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// CreatePeriod opens a new accounting period. Periods must not overlap.
func (s *reconciliationService) CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, userID string) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if !req.StartDate.Before(req.EndDate) {
		return nil, fmt.Errorf("%w: period start must be before its end", apperrors.ErrValidation)
	}

	existing, err := s.periodRepo.ListPeriods(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	for _, p := range existing {
		// [start, end) intervals overlap when each starts before the other ends.
		if req.StartDate.Before(p.EndDate) && p.StartDate.Before(req.EndDate) {
			return nil, fmt.Errorf("%w: period overlaps %q (%s to %s)",
				apperrors.ErrConflict, p.Name, p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly))
		}
	}

	now := time.Now().UTC()
	period := domain.AccountingPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  tenantID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, tenantID, period); err != nil {
		logger.Error("Failed to save period", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save period: %w", err)
	}

	logger.Info("Accounting period created", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	return &period, nil
}

// ListPeriods returns all of the tenant's accounting periods.
func (s *reconciliationService) ListPeriods(ctx context.Context, tenantID string, userID string) ([]domain.AccountingPeriod, error) {
	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.periodRepo.ListPeriods(ctx, tenantID)
}

// ClosePeriod drives OPEN -> CLOSING -> CLOSED. The first transition is a
// commit barrier: once it returns, no in-flight entry can still land in the
// period, so the closing balance snapshot taken afterwards is final. Closing
// an already-closed period succeeds without doing anything.
func (s *reconciliationService) ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) (domain.PeriodStatus, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleAdmin); err != nil {
		return "", err
	}

	period, err := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()

	switch period.Status {
	case domain.PeriodClosed:
		return domain.PeriodClosed, nil

	case domain.PeriodOpen:
		err := s.periodRepo.TransitionPeriodStatus(ctx, tenantID, periodID, domain.PeriodOpen, domain.PeriodClosing, userID, now)
		if err != nil {
			if errors.Is(err, apperrors.ErrConcurrentModification) {
				// Someone else is closing (or closed) it. Re-read and treat
				// an already-closed period as success.
				current, ferr := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID)
				if ferr != nil {
					return "", ferr
				}
				if current.Status == domain.PeriodClosed {
					return domain.PeriodClosed, nil
				}
				return "", fmt.Errorf("%w: period %s close already in progress", apperrors.ErrConcurrentModification, periodID)
			}
			return "", err
		}

	case domain.PeriodClosing:
		// A previous close attempt stalled after the barrier; resume it.
		logger.Warn("Resuming interrupted period close", slog.String("period_id", periodID))

	default:
		return "", fmt.Errorf("%w: period %s has unexpected status %s", apperrors.ErrInternal, periodID, period.Status)
	}

	if err := s.snapshotClosingBalances(ctx, tenantID, *period); err != nil {
		logger.Error("Failed to snapshot closing balances", slog.String("period_id", periodID), slog.String("error", err.Error()))
		return "", err
	}

	if err := s.periodRepo.TransitionPeriodStatus(ctx, tenantID, periodID, domain.PeriodClosing, domain.PeriodClosed, userID, now); err != nil {
		return "", err
	}

	event := domain.PeriodEvent{
		EventID:    uuid.NewString(),
		TenantID:   tenantID,
		PeriodID:   periodID,
		EventType:  domain.PeriodEventClosed,
		OccurredAt: now,
		ActorID:    userID,
	}
	if err := s.periodRepo.SavePeriodEvent(ctx, tenantID, event); err != nil {
		logger.Error("Failed to record period close event", slog.String("period_id", periodID), slog.String("error", err.Error()))
		return "", err
	}

	logger.Info("Accounting period closed", slog.String("period_id", periodID))
	return domain.PeriodClosed, nil
}

// snapshotClosingBalances captures the balance of every account as of the
// period's end. The snapshot is derived data and may be rewritten when the
// period closes again after a reopen.
func (s *reconciliationService) snapshotClosingBalances(ctx context.Context, tenantID string, period domain.AccountingPeriod) error {
	var balances []domain.PeriodBalance

	for offset := 0; ; offset += snapshotPageSize {
		accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, snapshotPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list accounts for snapshot: %w", err)
		}
		if len(accounts) == 0 {
			break
		}

		for _, acct := range accounts {
			bal, err := s.ledgerRepo.GetAccountBalance(ctx, tenantID, acct.AccountID, period.EndDate)
			if err != nil {
				return fmt.Errorf("failed to compute closing balance for account %s: %w", acct.AccountID, err)
			}
			balances = append(balances, domain.PeriodBalance{
				TenantID:       tenantID,
				PeriodID:       period.PeriodID,
				AccountID:      acct.AccountID,
				ClosingBalance: domain.Money{Amount: bal, CurrencyCode: acct.CurrencyCode},
			})
		}

		if len(accounts) < snapshotPageSize {
			break
		}
	}

	if len(balances) == 0 {
		return nil
	}
	return s.periodRepo.SavePeriodBalances(ctx, tenantID, balances)
}

// ReopenPeriod returns a closed period to OPEN. The mandatory reason is
// recorded as an audit event before the period accepts postings again.
func (s *reconciliationService) ReopenPeriod(ctx context.Context, tenantID string, periodID string, reason string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleAdmin); err != nil {
		return err
	}
	if reason == "" {
		return fmt.Errorf("%w: a reason is required to reopen a period", apperrors.ErrValidation)
	}

	period, err := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID)
	if err != nil {
		return err
	}
	if period.Status != domain.PeriodClosed {
		return fmt.Errorf("%w: only closed periods can be reopened, period is %s", apperrors.ErrConflict, period.Status)
	}

	now := time.Now().UTC()
	event := domain.PeriodEvent{
		EventID:    uuid.NewString(),
		TenantID:   tenantID,
		PeriodID:   periodID,
		EventType:  domain.PeriodEventReopened,
		Reason:     reason,
		OccurredAt: now,
		ActorID:    userID,
	}
	if err := s.periodRepo.SavePeriodEvent(ctx, tenantID, event); err != nil {
		return fmt.Errorf("failed to record reopen event: %w", err)
	}

	if err := s.periodRepo.TransitionPeriodStatus(ctx, tenantID, periodID, domain.PeriodClosed, domain.PeriodOpen, userID, now); err != nil {
		return err
	}

	logger.Info("Accounting period reopened", slog.String("period_id", periodID), slog.String("reason", reason))
	return nil
}

// ComputeTrialBalance aggregates per-account debit and credit totals for the
// period and asserts the global invariant that total debits equal total
// credits across the tenant's whole ledger. A violation means corrupted
// books: the tenant's ledger is halted and the error is surfaced as fatal.
func (s *reconciliationService) ComputeTrialBalance(ctx context.Context, tenantID string, periodID string, userID string) (*domain.TrialBalanceReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	if _, err := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID); err != nil {
		return nil, err
	}

	activity, err := s.ledgerRepo.SumAccountActivity(ctx, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account activity: %w", err)
	}

	accountIDs := make([]string, len(activity))
	for i, a := range activity {
		accountIDs[i] = a.AccountID
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up accounts: %w", err)
	}

	report := &domain.TrialBalanceReport{
		TenantID:     tenantID,
		PeriodID:     periodID,
		Lines:        make([]domain.TrialBalanceLine, 0, len(activity)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}

	for _, a := range activity {
		acct, ok := accounts[a.AccountID]
		if !ok {
			// Postings reference an account the tenant-scoped lookup cannot
			// see. That is itself an integrity problem.
			return nil, s.haltLedger(ctx, tenantID,
				fmt.Sprintf("posting references unknown account %s", a.AccountID))
		}

		var balance decimal.Decimal
		if acct.AccountType.NormalBalance() == domain.Debit {
			balance = a.TotalDebits.Sub(a.TotalCredits)
		} else {
			balance = a.TotalCredits.Sub(a.TotalDebits)
		}

		report.Lines = append(report.Lines, domain.TrialBalanceLine{
			AccountID:    acct.AccountID,
			AccountCode:  acct.Code,
			AccountName:  acct.Name,
			AccountType:  acct.AccountType,
			TotalDebits:  a.TotalDebits,
			TotalCredits: a.TotalCredits,
			Balance:      domain.Money{Amount: balance, CurrencyCode: acct.CurrencyCode},
		})
		report.TotalDebits = report.TotalDebits.Add(a.TotalDebits)
		report.TotalCredits = report.TotalCredits.Add(a.TotalCredits)
		if report.CurrencyCode == "" {
			report.CurrencyCode = acct.CurrencyCode
		}
	}

	ledgerDebits, ledgerCredits, err := s.ledgerRepo.SumLedgerTotals(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger totals: %w", err)
	}
	if !ledgerDebits.Equal(ledgerCredits) {
		logger.Error("Ledger-wide debit/credit totals diverged",
			slog.String("tenant_id", tenantID),
			slog.String("total_debits", ledgerDebits.String()),
			slog.String("total_credits", ledgerCredits.String()),
		)
		return nil, s.haltLedger(ctx, tenantID,
			fmt.Sprintf("ledger totals diverged: debits %s, credits %s", ledgerDebits, ledgerCredits))
	}

	report.Balanced = report.TotalDebits.Equal(report.TotalCredits)
	return report, nil
}

// haltLedger flags the tenant's ledger as halted and returns the integrity
// violation error. The flag is never cleared automatically.
func (s *reconciliationService) haltLedger(ctx context.Context, tenantID string, reason string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantRepo.SetLedgerHalted(ctx, tenantID, reason, time.Now().UTC()); err != nil {
		logger.Error("Failed to halt ledger after integrity violation",
			slog.String("tenant_id", tenantID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s (and halting the ledger failed: %v)", apperrors.ErrLedgerIntegrityViolation, reason, err)
	}

	logger.Error("Ledger halted", slog.String("tenant_id", tenantID), slog.String("reason", reason))
	return fmt.Errorf("%w: %s", apperrors.ErrLedgerIntegrityViolation, reason)
}

// GetFinancialSummary derives the period's revenue and expense totals from
// committed postings. Revenue accounts accumulate on the credit side and
// expense accounts on the debit side.
func (s *reconciliationService) GetFinancialSummary(ctx context.Context, tenantID string, periodID string, userID string) (*domain.FinancialSummary, error) {
	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	if _, err := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID); err != nil {
		return nil, err
	}

	activity, err := s.ledgerRepo.SumAccountActivity(ctx, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account activity: %w", err)
	}

	accountIDs := make([]string, len(activity))
	for i, a := range activity {
		accountIDs[i] = a.AccountID
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up accounts: %w", err)
	}

	summary := &domain.FinancialSummary{
		TenantID:         tenantID,
		PeriodID:         periodID,
		TotalRevenue:     decimal.Zero,
		TotalExpenses:    decimal.Zero,
		RevenueByAccount: make(map[string]decimal.Decimal),
		ExpenseByAccount: make(map[string]decimal.Decimal),
	}

	for _, a := range activity {
		acct, ok := accounts[a.AccountID]
		if !ok {
			continue
		}
		switch acct.AccountType {
		case domain.Revenue:
			net := a.TotalCredits.Sub(a.TotalDebits)
			summary.RevenueByAccount[acct.Code] = net
			summary.TotalRevenue = summary.TotalRevenue.Add(net)
		case domain.Expense:
			net := a.TotalDebits.Sub(a.TotalCredits)
			summary.ExpenseByAccount[acct.Code] = net
			summary.TotalExpenses = summary.TotalExpenses.Add(net)
		}
		if summary.CurrencyCode == "" {
			summary.CurrencyCode = acct.CurrencyCode
		}
	}

	summary.NetResult = summary.TotalRevenue.Sub(summary.TotalExpenses)
	return summary, nil
}
