package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/core/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

type PostingServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo   *MockLedgerRepository
	mockAccountRepo  *MockAccountRepository
	mockPeriodRepo   *MockPeriodRepository
	mockCurrencyRepo *MockCurrencyRepository
	mockTenantSvc    *MockTenantService
	service          portssvc.PostingSvcFacade
	tenantID         string
	userID           string
	cashAccount      domain.Account
	feeAccount       domain.Account
	openPeriod       domain.AccountingPeriod
	usd              domain.Currency
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockPeriodRepo = new(MockPeriodRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.mockTenantSvc = new(MockTenantService)
	suite.service = services.NewPostingService(
		suite.mockLedgerRepo,
		suite.mockAccountRepo,
		suite.mockPeriodRepo,
		suite.mockCurrencyRepo,
		suite.mockTenantSvc,
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.cashAccount = domain.Account{
		AccountID:    uuid.NewString(),
		TenantID:     suite.tenantID,
		Code:         "1000",
		Name:         "Cash",
		AccountType:  domain.Asset,
		CurrencyCode: "USD",
		IsActive:     true,
	}
	suite.feeAccount = domain.Account{
		AccountID:    uuid.NewString(),
		TenantID:     suite.tenantID,
		Code:         "4000",
		Name:         "Tuition Fees",
		AccountType:  domain.Revenue,
		CurrencyCode: "USD",
		IsActive:     true,
	}
	suite.openPeriod = domain.AccountingPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  suite.tenantID,
		Name:      "2026-09",
		StartDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
	suite.usd = domain.Currency{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", Precision: 2}
}

func (suite *PostingServiceTestSuite) expectWriteAuthorized() {
	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.tenantID, domain.RoleMember).Return(nil)
	suite.mockTenantSvc.On("RequireWritableLedger", mock.Anything, suite.tenantID).Return(nil)
}

func (suite *PostingServiceTestSuite) accountsByID() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID: suite.cashAccount,
		suite.feeAccount.AccountID:  suite.feeAccount,
	}
}

func (suite *PostingServiceTestSuite) draftEntry(amount string) dto.CreateEntryRequest {
	amt := decimal.RequireFromString(amount)
	return dto.CreateEntryRequest{
		Date:         time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Description:  "Tuition payment",
		CurrencyCode: "USD",
		Postings: []dto.CreatePostingRequest{
			{AccountID: suite.cashAccount.AccountID, Amount: amt, Side: domain.Debit},
			{AccountID: suite.feeAccount.AccountID, Amount: amt, Side: domain.Credit},
		},
	}
}

func (suite *PostingServiceTestSuite) TestPostEntrySuccess() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&suite.openPeriod, nil)

	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.Posting"), mock.Anything).
		Run(func(args mock.Arguments) {
			entry := args.Get(2).(domain.JournalEntry)
			suite.Equal(suite.openPeriod.PeriodID, entry.PeriodID)
			suite.True(entry.Amount.Equal(decimal.RequireFromString("150.00")))

			changes := args.Get(4).(map[string]decimal.Decimal)
			// Cash is debit-normal, fees are credit-normal: both rise.
			suite.True(changes[suite.cashAccount.AccountID].Equal(decimal.RequireFromString("150.00")))
			suite.True(changes[suite.feeAccount.AccountID].Equal(decimal.RequireFromString("150.00")))
		}).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), TenantID: suite.tenantID, SequenceNo: 7, Status: domain.Posted}, nil).Once()

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.NoError(err)
	suite.NotNil(committed)
	suite.Equal(int64(7), committed.SequenceNo)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEntryUnbalanced() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")
	req.Postings[1].Amount = decimal.RequireFromString("149.99")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
	suite.Nil(committed)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntryForeignAccountRejected() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	// The fee account resolves under some other tenant, so the scoped lookup
	// omits it.
	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).
		Return(map[string]domain.Account{suite.cashAccount.AccountID: suite.cashAccount}, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrTenantMismatch)
	suite.Nil(committed)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntryCurrencyMismatch() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	eurFees := suite.feeAccount
	eurFees.CurrencyCode = "EUR"
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID: suite.cashAccount,
		eurFees.AccountID:           eurFees,
	}

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(accounts, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrCurrencyMismatch)
	suite.Nil(committed)
}

func (suite *PostingServiceTestSuite) TestPostEntryNonPositiveAmount() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")
	req.Postings[0].Amount = decimal.RequireFromString("-150.00")
	req.Postings[1].Amount = decimal.RequireFromString("-150.00")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&suite.openPeriod, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.Nil(committed)
}

func (suite *PostingServiceTestSuite) TestPostEntryPrecisionTooFine() {
	ctx := context.Background()
	req := suite.draftEntry("150.001")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&suite.openPeriod, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.Nil(committed)
}

func (suite *PostingServiceTestSuite) TestPostEntryZeroAmountUnbalancedReportsUnbalanced() {
	ctx := context.Background()
	req := suite.draftEntry("50.00")
	req.Postings[1].Amount = decimal.Zero

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	// The balance equation is checked before individual amounts, so the
	// zero posting must not mask the imbalance.
	suite.ErrorIs(err, apperrors.ErrUnbalancedEntry)
	suite.Nil(committed)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "FindPeriodForDate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntryZeroAmountClosedPeriodReportsPeriodClosed() {
	ctx := context.Background()
	req := suite.draftEntry("0")

	closed := suite.openPeriod
	closed.Status = domain.PeriodClosed

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&closed, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	// Period state outranks per-posting amount validation.
	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
	suite.Nil(committed)
}

func (suite *PostingServiceTestSuite) TestPostEntryPeriodClosed() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	closing := suite.openPeriod
	closing.Status = domain.PeriodClosing

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&closing, nil)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
	suite.Nil(committed)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntryRetriesOnceOnConflict() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&suite.openPeriod, nil).Twice()

	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.Posting"), mock.Anything).
		Return(nil, apperrors.ErrConcurrentModification).Once()
	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.Posting"), mock.Anything).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), SequenceNo: 8, Status: domain.Posted}, nil).Once()

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.NoError(err)
	suite.NotNil(committed)
	suite.mockLedgerRepo.AssertNumberOfCalls(suite.T(), "AppendEntry", 2)
	suite.mockPeriodRepo.AssertNumberOfCalls(suite.T(), "FindPeriodForDate", 2)
}

func (suite *PostingServiceTestSuite) TestPostEntrySurfacesSecondConflict() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	suite.expectWriteAuthorized()
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockCurrencyRepo.On("FindCurrencyByCode", mock.Anything, "USD").Return(&suite.usd, nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, req.Date).Return(&suite.openPeriod, nil)
	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.Posting"), mock.Anything).
		Return(nil, apperrors.ErrConcurrentModification)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrConcurrentModification)
	suite.Nil(committed)
	suite.mockLedgerRepo.AssertNumberOfCalls(suite.T(), "AppendEntry", 2)
}

func (suite *PostingServiceTestSuite) TestPostEntryHaltedLedgerRejected() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.tenantID, domain.RoleMember).Return(nil)
	suite.mockTenantSvc.On("RequireWritableLedger", mock.Anything, suite.tenantID).Return(apperrors.ErrLedgerIntegrityViolation)

	committed, err := suite.service.PostEntry(ctx, suite.tenantID, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrLedgerIntegrityViolation)
	suite.Nil(committed)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountsByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntryMissingTenantContext() {
	ctx := context.Background()
	req := suite.draftEntry("150.00")

	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, "", domain.RoleMember).Return(apperrors.ErrMissingTenantContext)

	committed, err := suite.service.PostEntry(ctx, "", req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrMissingTenantContext)
	suite.Nil(committed)
}

func (suite *PostingServiceTestSuite) TestReverseEntrySuccess() {
	ctx := context.Background()
	originalID := uuid.NewString()
	amount := decimal.RequireFromString("150.00")

	original := domain.JournalEntry{
		EntryID:      originalID,
		TenantID:     suite.tenantID,
		PeriodID:     suite.openPeriod.PeriodID,
		Description:  "Tuition payment",
		CurrencyCode: "USD",
		Status:       domain.Posted,
		Amount:       amount,
	}
	originalPostings := []domain.Posting{
		{PostingID: uuid.NewString(), EntryID: originalID, TenantID: suite.tenantID, AccountID: suite.cashAccount.AccountID, Amount: amount, Side: domain.Debit, CurrencyCode: "USD"},
		{PostingID: uuid.NewString(), EntryID: originalID, TenantID: suite.tenantID, AccountID: suite.feeAccount.AccountID, Amount: amount, Side: domain.Credit, CurrencyCode: "USD"},
	}

	suite.expectWriteAuthorized()
	suite.mockLedgerRepo.On("FindEntryByID", mock.Anything, suite.tenantID, originalID).Return(&original, nil)
	suite.mockLedgerRepo.On("FindPostingsByEntryID", mock.Anything, suite.tenantID, originalID).Return(originalPostings, nil)
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, mock.AnythingOfType("time.Time")).Return(&suite.openPeriod, nil)

	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID,
		mock.MatchedBy(func(entry domain.JournalEntry) bool {
			return entry.OriginalEntryID != nil && *entry.OriginalEntryID == originalID
		}),
		mock.MatchedBy(func(postings []domain.Posting) bool {
			if len(postings) != 2 {
				return false
			}
			// Sides must be flipped relative to the original.
			return postings[0].Side == domain.Credit && postings[1].Side == domain.Debit
		}),
		mock.Anything,
	).Run(func(args mock.Arguments) {
		changes := args.Get(4).(map[string]decimal.Decimal)
		// Reversal nets the original out: both balances move down.
		suite.True(changes[suite.cashAccount.AccountID].Equal(amount.Neg()))
		suite.True(changes[suite.feeAccount.AccountID].Equal(amount.Neg()))
	}).Return(&domain.JournalEntry{EntryID: uuid.NewString(), TenantID: suite.tenantID, Status: domain.Posted, OriginalEntryID: &originalID}, nil).Once()

	reversal, err := suite.service.ReverseEntry(ctx, suite.tenantID, originalID, suite.userID)

	suite.NoError(err)
	suite.NotNil(reversal)
	suite.True(reversal.IsReversal())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestReverseEntryOfReversalRejected() {
	ctx := context.Background()
	someID := uuid.NewString()
	entryID := uuid.NewString()
	reversal := domain.JournalEntry{
		EntryID:         entryID,
		TenantID:        suite.tenantID,
		Status:          domain.Posted,
		OriginalEntryID: &someID,
	}

	suite.expectWriteAuthorized()
	suite.mockLedgerRepo.On("FindEntryByID", mock.Anything, suite.tenantID, entryID).Return(&reversal, nil)

	result, err := suite.service.ReverseEntry(ctx, suite.tenantID, entryID, suite.userID)

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(result)
}

func (suite *PostingServiceTestSuite) TestReverseEntryAlreadyReversed() {
	ctx := context.Background()
	entryID := uuid.NewString()
	reversed := domain.JournalEntry{
		EntryID:  entryID,
		TenantID: suite.tenantID,
		Status:   domain.Reversed,
	}

	suite.expectWriteAuthorized()
	suite.mockLedgerRepo.On("FindEntryByID", mock.Anything, suite.tenantID, entryID).Return(&reversed, nil)

	result, err := suite.service.ReverseEntry(ctx, suite.tenantID, entryID, suite.userID)

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(result)
}

func (suite *PostingServiceTestSuite) TestReverseEntryRaceAbortsAtStore() {
	ctx := context.Background()
	originalID := uuid.NewString()
	amount := decimal.RequireFromString("100.00")

	original := domain.JournalEntry{
		EntryID:      originalID,
		TenantID:     suite.tenantID,
		PeriodID:     suite.openPeriod.PeriodID,
		Description:  "Tuition payment",
		CurrencyCode: "USD",
		Status:       domain.Posted,
		Amount:       amount,
	}
	originalPostings := []domain.Posting{
		{PostingID: uuid.NewString(), EntryID: originalID, TenantID: suite.tenantID, AccountID: suite.cashAccount.AccountID, Amount: amount, Side: domain.Debit, CurrencyCode: "USD"},
		{PostingID: uuid.NewString(), EntryID: originalID, TenantID: suite.tenantID, AccountID: suite.feeAccount.AccountID, Amount: amount, Side: domain.Credit, CurrencyCode: "USD"},
	}

	// The pre-check still sees the original as POSTED; the store detects the
	// racing reversal when the append tries to claim it.
	suite.expectWriteAuthorized()
	suite.mockLedgerRepo.On("FindEntryByID", mock.Anything, suite.tenantID, originalID).Return(&original, nil)
	suite.mockLedgerRepo.On("FindPostingsByEntryID", mock.Anything, suite.tenantID, originalID).Return(originalPostings, nil)
	suite.mockAccountRepo.On("FindAccountsByIDs", mock.Anything, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsByID(), nil)
	suite.mockPeriodRepo.On("FindPeriodForDate", mock.Anything, suite.tenantID, mock.AnythingOfType("time.Time")).Return(&suite.openPeriod, nil)
	suite.mockLedgerRepo.On("AppendEntry", mock.Anything, suite.tenantID, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.Posting"), mock.Anything).
		Return(nil, apperrors.ErrConflict).Once()

	result, err := suite.service.ReverseEntry(ctx, suite.tenantID, originalID, suite.userID)

	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(result)
	suite.mockLedgerRepo.AssertNumberOfCalls(suite.T(), "AppendEntry", 1)
}

func (suite *PostingServiceTestSuite) TestGetAccountBalanceSuccess() {
	ctx := context.Background()
	asOf := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.tenantID, domain.RoleReadOnly).Return(nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.tenantID, suite.cashAccount.AccountID).Return(&suite.cashAccount, nil)
	suite.mockLedgerRepo.On("GetAccountBalance", mock.Anything, suite.tenantID, suite.cashAccount.AccountID, asOf).Return(decimal.RequireFromString("320.50"), nil)

	balance, err := suite.service.GetAccountBalance(ctx, suite.tenantID, suite.cashAccount.AccountID, asOf, suite.userID)

	suite.NoError(err)
	suite.Equal("USD", balance.CurrencyCode)
	suite.True(balance.Amount.Equal(decimal.RequireFromString("320.50")))
}

func (suite *PostingServiceTestSuite) TestGetAccountBalanceForeignAccount() {
	ctx := context.Background()
	foreignAccountID := uuid.NewString()

	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.tenantID, domain.RoleReadOnly).Return(nil)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.tenantID, foreignAccountID).Return(nil, apperrors.ErrNotFound)

	_, err := suite.service.GetAccountBalance(ctx, suite.tenantID, foreignAccountID, time.Now(), suite.userID)

	suite.ErrorIs(err, apperrors.ErrTenantMismatch)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "GetAccountBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestListEntriesClampsLimit() {
	ctx := context.Background()
	params := dto.ListEntriesParams{PeriodID: suite.openPeriod.PeriodID, Limit: 10000}

	suite.mockTenantSvc.On("AuthorizeUserAction", mock.Anything, suite.userID, suite.tenantID, domain.RoleReadOnly).Return(nil)
	suite.mockPeriodRepo.On("FindPeriodByID", mock.Anything, suite.tenantID, suite.openPeriod.PeriodID).Return(&suite.openPeriod, nil)
	suite.mockLedgerRepo.On("ListEntries", mock.Anything, suite.tenantID, suite.openPeriod.PeriodID, 100, (*string)(nil)).Return([]domain.JournalEntry{}, nil, nil)

	resp, err := suite.service.ListEntries(ctx, suite.tenantID, params, suite.userID)

	suite.NoError(err)
	suite.NotNil(resp)
	suite.Empty(resp.Entries)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}

func TestPostingServiceRequiresTwoDistinctAccounts(t *testing.T) {
	mockLedger := new(MockLedgerRepository)
	mockAccounts := new(MockAccountRepository)
	mockPeriods := new(MockPeriodRepository)
	mockCurrencies := new(MockCurrencyRepository)
	mockTenantSvc := new(MockTenantService)
	svc := services.NewPostingService(mockLedger, mockAccounts, mockPeriods, mockCurrencies, mockTenantSvc)

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	accountID := uuid.NewString()
	mockTenantSvc.On("AuthorizeUserAction", mock.Anything, userID, tenantID, domain.RoleMember).Return(nil)
	mockTenantSvc.On("RequireWritableLedger", mock.Anything, tenantID).Return(nil)

	req := dto.CreateEntryRequest{
		Date:         time.Now(),
		Description:  "self transfer",
		CurrencyCode: "USD",
		Postings: []dto.CreatePostingRequest{
			{AccountID: accountID, Amount: decimal.New(100, 0), Side: domain.Debit},
			{AccountID: accountID, Amount: decimal.New(100, 0), Side: domain.Credit},
		},
	}

	_, err := svc.PostEntry(context.Background(), tenantID, req, userID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
