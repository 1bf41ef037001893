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
	"github.com/eduledger/school_ledger_app/internal/utils/accounting"
)

const (
	minPostingsPerEntry = 2
	maxListEntriesLimit = 100
)

// postingService validates draft journal entries and commits them through the
// ledger store. Validation happens up front; the store re-checks only what
// can change between validation and commit (the period status).
type postingService struct {
	ledgerRepo   portsrepo.LedgerRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	periodRepo   portsrepo.PeriodRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	tenantSvc    portssvc.TenantSvcFacade
}

// NewPostingService creates a new PostingService.
func NewPostingService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	periodRepo portsrepo.PeriodRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	tenantSvc portssvc.TenantSvcFacade,
) portssvc.PostingSvcFacade {
	return &postingService{
		ledgerRepo:   ledgerRepo,
		accountRepo:  accountRepo,
		periodRepo:   periodRepo,
		currencyRepo: currencyRepo,
		tenantSvc:    tenantSvc,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// PostEntry validates a draft entry and appends it to the tenant's ledger.
func (s *postingService) PostEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleMember); err != nil {
		return nil, err
	}
	if err := s.tenantSvc.RequireWritableLedger(ctx, tenantID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()

	entry, postings, err := s.buildEntry(ctx, tenantID, entryID, req, userID, now)
	if err != nil {
		return nil, err
	}

	balanceChanges, err := s.balanceChanges(ctx, tenantID, postings)
	if err != nil {
		return nil, err
	}

	committed, err := s.appendWithRetry(ctx, tenantID, *entry, postings, balanceChanges, req.Date)
	if err != nil {
		return nil, err
	}

	logger.Info("Journal entry posted",
		slog.String("entry_id", committed.EntryID),
		slog.Int64("sequence_no", committed.SequenceNo),
		slog.Int("postings", len(committed.Postings)),
	)
	return committed, nil
}

// buildEntry runs the full validation pipeline over a draft and produces the
// domain entry, postings and target period ready for the store. The checks
// run in a fixed order: account ownership, then the balance equation, then
// the period, then per-posting amounts. Ownership comes first so a caller
// probing another tenant's accounts learns nothing beyond "mismatch", and an
// entry that is broken in several ways always reports the same error.
func (s *postingService) buildEntry(ctx context.Context, tenantID string, entryID string, req dto.CreateEntryRequest, userID string, now time.Time) (*domain.JournalEntry, []domain.Posting, error) {
	if len(req.Postings) < minPostingsPerEntry {
		return nil, nil, fmt.Errorf("%w: an entry requires at least %d postings", apperrors.ErrUnbalancedEntry, minPostingsPerEntry)
	}
	if req.Description == "" {
		return nil, nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}

	accountIDs := make([]string, 0, len(req.Postings))
	seen := make(map[string]struct{}, len(req.Postings))
	for _, p := range req.Postings {
		if _, ok := seen[p.AccountID]; !ok {
			seen[p.AccountID] = struct{}{}
			accountIDs = append(accountIDs, p.AccountID)
		}
	}
	if len(accountIDs) < 2 {
		return nil, nil, fmt.Errorf("%w: an entry must move value between at least two accounts", apperrors.ErrValidation)
	}

	// Ownership check: any account missing from the tenant-scoped lookup is
	// either nonexistent or belongs to another tenant. Both cases report the
	// same way.
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up accounts: %w", err)
	}
	for _, id := range accountIDs {
		acct, ok := accounts[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: account %s does not belong to this tenant", apperrors.ErrTenantMismatch, id)
		}
		if !acct.IsActive {
			return nil, nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if acct.CurrencyCode != req.CurrencyCode {
			return nil, nil, fmt.Errorf("%w: account %s is denominated in %s, entry is in %s",
				apperrors.ErrCurrencyMismatch, id, acct.CurrencyCode, req.CurrencyCode)
		}
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown currency %s", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, nil, fmt.Errorf("failed to look up currency: %w", err)
	}

	postings := make([]domain.Posting, len(req.Postings))
	for i, p := range req.Postings {
		postings[i] = domain.Posting{
			PostingID:    uuid.NewString(),
			EntryID:      entryID,
			TenantID:     tenantID,
			AccountID:    p.AccountID,
			Amount:       p.Amount,
			Side:         p.Side,
			CurrencyCode: req.CurrencyCode,
			Memo:         p.Memo,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		TenantID:     tenantID,
		EntryDate:    req.Date,
		Description:  req.Description,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Posted,
		Postings:     postings,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if !entry.IsBalanced() {
		return nil, nil, fmt.Errorf("%w: debits %s do not equal credits %s",
			apperrors.ErrUnbalancedEntry, entry.TotalDebits(), entry.TotalCredits())
	}
	entry.Amount = entry.TotalDebits()

	period, err := s.resolveOpenPeriod(ctx, tenantID, req.Date)
	if err != nil {
		return nil, nil, err
	}
	entry.PeriodID = period.PeriodID

	for i := range postings {
		if err := postings[i].Validate(currency.Precision); err != nil {
			return nil, nil, err
		}
	}

	return &entry, postings, nil
}

// balanceChanges computes the net signed balance delta per account, using
// each account's normal-balance convention.
func (s *postingService) balanceChanges(ctx context.Context, tenantID string, postings []domain.Posting) (map[string]decimal.Decimal, error) {
	accountIDs := make([]string, 0, len(postings))
	seen := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		if _, ok := seen[p.AccountID]; !ok {
			seen[p.AccountID] = struct{}{}
			accountIDs = append(accountIDs, p.AccountID)
		}
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up accounts: %w", err)
	}

	accountTypes := make(map[string]domain.AccountType, len(accounts))
	for id, acct := range accounts {
		accountTypes[id] = acct.AccountType
	}

	return accounting.NetBalanceChanges(postings, accountTypes)
}

// appendWithRetry appends the entry and retries exactly once when the store
// reports a concurrent period transition. The retry re-resolves the target
// period from scratch; if it genuinely closed, the caller sees ErrPeriodClosed
// rather than a transient conflict.
func (s *postingService) appendWithRetry(ctx context.Context, tenantID string, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal, effectiveDate time.Time) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	for attempt := 0; ; attempt++ {
		committed, err := s.ledgerRepo.AppendEntry(ctx, tenantID, entry, postings, balanceChanges)
		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentModification) || attempt >= 1 {
			return nil, err
		}
		logger.Warn("Append raced a period transition, retrying once",
			slog.String("entry_id", entry.EntryID),
			slog.String("period_id", entry.PeriodID),
		)

		period, rerr := s.resolveOpenPeriod(ctx, tenantID, effectiveDate)
		if rerr != nil {
			return nil, rerr
		}
		entry.PeriodID = period.PeriodID
	}
}

// resolveOpenPeriod locates the accounting period covering the effective date
// and verifies it accepts postings.
func (s *postingService) resolveOpenPeriod(ctx context.Context, tenantID string, effectiveDate time.Time) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, tenantID, effectiveDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no accounting period covers %s", apperrors.ErrValidation, effectiveDate.Format(time.RFC3339))
		}
		return nil, fmt.Errorf("failed to resolve accounting period: %w", err)
	}
	if !period.Status.AcceptsPostings() {
		return nil, fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodClosed, period.PeriodID, period.Status)
	}
	return period, nil
}

// ReverseEntry posts a compensating entry with every side flipped and links
// the pair. The original entry is immutable apart from its status and link.
func (s *postingService) ReverseEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleMember); err != nil {
		return nil, err
	}
	if err := s.tenantSvc.RequireWritableLedger(ctx, tenantID); err != nil {
		return nil, err
	}

	original, err := s.ledgerRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s is already %s", apperrors.ErrConflict, entryID, original.Status)
	}
	if original.IsReversal() {
		return nil, fmt.Errorf("%w: a reversing entry cannot itself be reversed", apperrors.ErrConflict)
	}

	originalPostings, err := s.ledgerRepo.FindPostingsByEntryID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	reversedPostings := make([]domain.Posting, len(originalPostings))
	for i, p := range originalPostings {
		reversedPostings[i] = domain.Posting{
			PostingID:    uuid.NewString(),
			EntryID:      reversalID,
			TenantID:     tenantID,
			AccountID:    p.AccountID,
			Amount:       p.Amount,
			Side:         p.Side.Opposite(),
			CurrencyCode: p.CurrencyCode,
			Memo:         p.Memo,
			AuditFields:  audit,
		}
	}

	originalID := original.EntryID
	reversal := domain.JournalEntry{
		EntryID:         reversalID,
		TenantID:        tenantID,
		EntryDate:       now,
		Description:     fmt.Sprintf("Reversal of: %s", original.Description),
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		OriginalEntryID: &originalID,
		Amount:          original.Amount,
		Postings:        reversedPostings,
		AuditFields:     audit,
	}

	balanceChanges, err := s.balanceChanges(ctx, tenantID, reversedPostings)
	if err != nil {
		return nil, err
	}

	period, err := s.resolveOpenPeriod(ctx, tenantID, reversal.EntryDate)
	if err != nil {
		return nil, err
	}
	reversal.PeriodID = period.PeriodID

	// The store claims the original atomically with the append: if a racing
	// reversal already flipped it to REVERSED, this append aborts with
	// ErrConflict and no compensating entry commits.
	committed, err := s.appendWithRetry(ctx, tenantID, reversal, reversedPostings, balanceChanges, reversal.EntryDate)
	if err != nil {
		return nil, err
	}

	logger.Info("Journal entry reversed",
		slog.String("entry_id", originalID),
		slog.String("reversing_entry_id", committed.EntryID),
	)
	return committed, nil
}

// GetEntryByID retrieves a committed entry with its postings.
func (s *postingService) GetEntryByID(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	entry, err := s.ledgerRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	postings, err := s.ledgerRepo.FindPostingsByEntryID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	entry.Postings = postings

	return entry, nil
}

// ListEntries pages through a period's entries in commit order.
func (s *postingService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams, userID string) (*dto.ListEntriesResponse, error) {
	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > maxListEntriesLimit {
		limit = maxListEntriesLimit
	}

	if _, err := s.periodRepo.FindPeriodByID(ctx, tenantID, params.PeriodID); err != nil {
		return nil, err
	}

	entries, nextToken, err := s.ledgerRepo.ListEntries(ctx, tenantID, params.PeriodID, limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// GetAccountBalance returns an account's balance as of the given time.
func (s *postingService) GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time, userID string) (domain.Money, error) {
	if err := s.tenantSvc.AuthorizeUserAction(ctx, userID, tenantID, domain.RoleReadOnly); err != nil {
		return domain.Money{}, err
	}

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Money{}, fmt.Errorf("%w: account %s does not belong to this tenant", apperrors.ErrTenantMismatch, accountID)
		}
		return domain.Money{}, err
	}

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	balance, err := s.ledgerRepo.GetAccountBalance(ctx, tenantID, accountID, asOf)
	if err != nil {
		return domain.Money{}, err
	}

	return domain.Money{Amount: balance, CurrencyCode: account.CurrencyCode}, nil
}
