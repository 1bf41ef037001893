package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/core/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/repositories/database/memory"
)

// ledgerFixture wires the real service layer over the in-memory store, so
// these tests exercise the full posting and reconciliation paths end to end.
type ledgerFixture struct {
	store          *memory.Store
	posting        portssvc.PostingSvcFacade
	reconciliation portssvc.ReconciliationSvcFacade
	adminID        string
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := newSeededStore(t)

	adminID := "user-admin"
	require.NoError(t, store.AddUserToTenant(context.Background(), testTenantID, domain.TenantUser{
		UserID: adminID, Role: domain.RoleAdmin, JoinedAt: time.Now(),
	}))

	tenantSvc := services.NewTenantService(store)
	return &ledgerFixture{
		store:          store,
		posting:        services.NewPostingService(store, store, store, store, tenantSvc),
		reconciliation: services.NewReconciliationService(store, store, store, store, tenantSvc),
		adminID:        adminID,
	}
}

func tuitionEntry(amount string) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:         entryDate,
		Description:  "tuition receipt",
		CurrencyCode: "USD",
		Postings: []dto.CreatePostingRequest{
			{AccountID: cashAccountID, Amount: decimal.RequireFromString(amount), Side: domain.Debit},
			{AccountID: feesAccountID, Amount: decimal.RequireFromString(amount), Side: domain.Credit},
		},
	}
}

func TestLedgerStaysBalancedOverManyEntries(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("12.50"), f.adminID)
		require.NoError(t, err)
	}

	report, err := f.reconciliation.ComputeTrialBalance(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, decimal.RequireFromString("1250.00").Equal(report.TotalDebits), "got %s", report.TotalDebits)
	assert.True(t, report.TotalDebits.Equal(report.TotalCredits))

	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1250.00").Equal(balance.Amount), "got %s", balance.Amount)
	assert.Equal(t, "USD", balance.CurrencyCode)
}

func TestUnbalancedEntryLeavesLedgerUntouched(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("100.00"), f.adminID)
	require.NoError(t, err)

	bad := tuitionEntry("100.00")
	bad.Postings[1].Amount = decimal.RequireFromString("99.99")
	_, err = f.posting.PostEntry(ctx, testTenantID, bad, f.adminID)
	require.ErrorIs(t, err, apperrors.ErrUnbalancedEntry)

	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.00").Equal(balance.Amount), "got %s", balance.Amount)

	report, err := f.reconciliation.ComputeTrialBalance(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestClosedPeriodRejectsNewEntries(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("40.00"), f.adminID)
	require.NoError(t, err)

	status, err := f.reconciliation.ClosePeriod(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodClosed, status)

	_, err = f.posting.PostEntry(ctx, testTenantID, tuitionEntry("5.00"), f.adminID)
	require.ErrorIs(t, err, apperrors.ErrPeriodClosed)

	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("40.00").Equal(balance.Amount), "got %s", balance.Amount)
}

func TestCloseSnapshotsClosingBalances(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("300.00"), f.adminID)
	require.NoError(t, err)

	_, err = f.reconciliation.ClosePeriod(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)

	balances, err := f.store.ListPeriodBalances(ctx, testTenantID, openPeriodID)
	require.NoError(t, err)
	byAccount := map[string]domain.PeriodBalance{}
	for _, b := range balances {
		byAccount[b.AccountID] = b
	}
	require.Contains(t, byAccount, cashAccountID)
	require.Contains(t, byAccount, feesAccountID)
	assert.True(t, decimal.RequireFromString("300.00").Equal(byAccount[cashAccountID].ClosingBalance.Amount))
	assert.True(t, decimal.RequireFromString("300.00").Equal(byAccount[feesAccountID].ClosingBalance.Amount))
}

func TestReopenRequiresReasonAndRecordsEvent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.reconciliation.ClosePeriod(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)

	err = f.reconciliation.ReopenPeriod(ctx, testTenantID, openPeriodID, "", f.adminID)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.reconciliation.ReopenPeriod(ctx, testTenantID, openPeriodID, "late tuition adjustment", f.adminID)
	require.NoError(t, err)

	events, err := f.store.ListPeriodEvents(ctx, testTenantID, openPeriodID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.PeriodEventClosed, events[0].EventType)
	assert.Equal(t, domain.PeriodEventReopened, events[1].EventType)
	assert.Equal(t, "late tuition adjustment", events[1].Reason)

	// Reopened periods accept postings again.
	_, err = f.posting.PostEntry(ctx, testTenantID, tuitionEntry("7.00"), f.adminID)
	require.NoError(t, err)
}

func TestReversalNetsToZero(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	original, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("250.00"), f.adminID)
	require.NoError(t, err)

	reversal, err := f.posting.ReverseEntry(ctx, testTenantID, original.EntryID, f.adminID)
	require.NoError(t, err)
	require.NotNil(t, reversal.OriginalEntryID)
	assert.Equal(t, original.EntryID, *reversal.OriginalEntryID)

	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.IsZero(), "cash balance after reversal: %s", balance.Amount)

	reread, err := f.posting.GetEntryByID(ctx, testTenantID, original.EntryID, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, reread.Status)
	require.NotNil(t, reread.ReversingEntryID)
	assert.Equal(t, reversal.EntryID, *reread.ReversingEntryID)

	report, err := f.reconciliation.ComputeTrialBalance(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestZeroAmountPostingReportsImbalanceFirst(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	bad := tuitionEntry("50.00")
	bad.Postings[1].Amount = decimal.Zero
	_, err := f.posting.PostEntry(ctx, testTenantID, bad, f.adminID)
	require.ErrorIs(t, err, apperrors.ErrUnbalancedEntry)

	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.IsZero(), "cash balance after rejection: %s", balance.Amount)
}

func TestConcurrentReversalsCommitExactlyOnce(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	const reversers = 8

	original, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("100.00"), f.adminID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, reversers)

	for i := 0; i < reversers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.posting.ReverseEntry(ctx, testTenantID, original.EntryID, f.adminID)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, apperrors.ErrConflict)
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one reversal must win")
	assert.Equal(t, reversers-1, conflicted)

	// A single compensating entry nets the original out; a second one would
	// flip the balance negative.
	balance, err := f.posting.GetAccountBalance(ctx, testTenantID, cashAccountID, time.Time{}, f.adminID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.IsZero(), "cash balance after racing reversals: %s", balance.Amount)

	reread, err := f.posting.GetEntryByID(ctx, testTenantID, original.EntryID, f.adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.Reversed, reread.Status)
	require.NotNil(t, reread.ReversingEntryID)

	report, err := f.reconciliation.ComputeTrialBalance(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestConcurrentPostingThroughServiceLayer(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	entries := make(chan *domain.JournalEntry, writers)
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			committed, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("3.00"), f.adminID)
			if err != nil {
				errs <- err
				return
			}
			entries <- committed
		}()
	}
	wg.Wait()
	close(entries)
	close(errs)

	for err := range errs {
		t.Fatalf("post failed: %v", err)
	}

	seen := map[int64]bool{}
	for entry := range entries {
		assert.False(t, seen[entry.SequenceNo], "sequence %d assigned twice", entry.SequenceNo)
		seen[entry.SequenceNo] = true
	}
	assert.Len(t, seen, writers)

	report, err := f.reconciliation.ComputeTrialBalance(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, decimal.RequireFromString("60.00").Equal(report.TotalDebits), "got %s", report.TotalDebits)
}

func TestFinancialSummaryFromCommittedPostings(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveAccount(ctx, testTenantID, domain.Account{
		AccountID: "acc-supplies", Code: "5000", Name: "Classroom Supplies", AccountType: domain.Expense, CurrencyCode: "USD", IsActive: true,
	}))

	_, err := f.posting.PostEntry(ctx, testTenantID, tuitionEntry("500.00"), f.adminID)
	require.NoError(t, err)

	supplies := dto.CreateEntryRequest{
		Date:         entryDate,
		Description:  "supplies purchase",
		CurrencyCode: "USD",
		Postings: []dto.CreatePostingRequest{
			{AccountID: "acc-supplies", Amount: decimal.RequireFromString("180.00"), Side: domain.Debit},
			{AccountID: cashAccountID, Amount: decimal.RequireFromString("180.00"), Side: domain.Credit},
		},
	}
	_, err = f.posting.PostEntry(ctx, testTenantID, supplies, f.adminID)
	require.NoError(t, err)

	summary, err := f.reconciliation.GetFinancialSummary(ctx, testTenantID, openPeriodID, f.adminID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500.00").Equal(summary.TotalRevenue), "revenue %s", summary.TotalRevenue)
	assert.True(t, decimal.RequireFromString("180.00").Equal(summary.TotalExpenses), "expenses %s", summary.TotalExpenses)
	assert.True(t, decimal.RequireFromString("320.00").Equal(summary.NetResult), "net %s", summary.NetResult)
	assert.True(t, decimal.RequireFromString("500.00").Equal(summary.RevenueByAccount["4000"]))
	assert.True(t, decimal.RequireFromString("180.00").Equal(summary.ExpenseByAccount["5000"]))
}
