// Package memory provides an in-process implementation of every repository
// facade, backed by maps and a per-tenant mutex. It exists for tests and
// local experimentation; the Postgres repositories are the production path.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
	"github.com/eduledger/school_ledger_app/internal/utils/accounting"
	"github.com/eduledger/school_ledger_app/internal/utils/pagination"
)

// Store holds all tenant data in memory. It implements every repository
// facade; NewRepositoryProvider exposes it through the same provider shape
// the Postgres package uses so the service layer cannot tell them apart.
type Store struct {
	mu         sync.RWMutex
	tenants    map[string]*tenantState
	users      map[string]domain.User
	currencies map[string]domain.Currency
}

// tenantState is one tenant's slice of the world. Its mutex serializes all
// ledger writes for the tenant, which is how the sequence counter stays
// gapless and the period status re-check stays race-free.
type tenantState struct {
	mu             sync.Mutex
	tenant         domain.Tenant
	lastSequenceNo int64
	memberships    map[string]domain.TenantUser
	accounts       map[string]domain.Account
	periods        map[string]domain.AccountingPeriod
	periodEvents   []domain.PeriodEvent
	periodBalances map[string]map[string]domain.PeriodBalance
	entries        map[string]domain.JournalEntry
	entryOrder     []string // entry IDs in commit-sequence order
	postings       map[string][]domain.Posting
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tenants:    make(map[string]*tenantState),
		users:      make(map[string]domain.User),
		currencies: make(map[string]domain.Currency),
	}
}

// NewRepositoryProvider wires the store into the standard provider shape.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:   store,
		AccountRepo:  store,
		PeriodRepo:   store,
		TenantRepo:   store,
		UserRepo:     store,
		CurrencyRepo: store,
	}
}

var (
	_ portsrepo.LedgerRepositoryFacade   = (*Store)(nil)
	_ portsrepo.AccountRepositoryFacade  = (*Store)(nil)
	_ portsrepo.PeriodRepositoryFacade   = (*Store)(nil)
	_ portsrepo.TenantRepositoryFacade   = (*Store)(nil)
	_ portsrepo.UserRepositoryFacade     = (*Store)(nil)
	_ portsrepo.CurrencyRepositoryFacade = (*Store)(nil)
)

func (s *Store) tenantState(tenantID string) (*tenantState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.tenants[tenantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return ts, nil
}

// --- LedgerRepositoryFacade ---

// AppendEntry commits a validated entry under the tenant's write lock: it
// re-checks the target period status, claims the next sequence number,
// applies the net balance changes, and stores the entry with its postings.
// A reversal also flips its original entry to REVERSED in the same critical
// section, failing with ErrConflict if a racing reversal got there first.
// Nothing is mutated until every check has passed.
func (s *Store) AppendEntry(_ context.Context, tenantID string, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) (*domain.JournalEntry, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	period, ok := ts.periods[entry.PeriodID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !period.Status.AcceptsPostings() {
		return nil, fmt.Errorf("%w: period %s stopped accepting postings", apperrors.ErrConcurrentModification, period.PeriodID)
	}
	for accountID := range balanceChanges {
		if _, ok := ts.accounts[accountID]; !ok {
			return nil, apperrors.ErrNotFound
		}
	}
	if entry.OriginalEntryID != nil {
		original, ok := ts.entries[*entry.OriginalEntryID]
		if !ok || original.Status != domain.Posted {
			return nil, fmt.Errorf("%w: entry %s is no longer open for reversal", apperrors.ErrConflict, *entry.OriginalEntryID)
		}
	}

	committed := make([]domain.Posting, len(postings))
	copy(committed, postings)
	sort.Slice(committed, func(i, j int) bool {
		return committed[i].PostingID < committed[j].PostingID
	})
	running := make(map[string]decimal.Decimal, len(committed))
	for i := range committed {
		committed[i].EntryID = entry.EntryID
		committed[i].TenantID = tenantID
		account := ts.accounts[committed[i].AccountID]
		base, seen := running[committed[i].AccountID]
		if !seen {
			base = account.Balance
		}
		signed, err := accounting.SignedAmount(committed[i], account.AccountType)
		if err != nil {
			return nil, err
		}
		base = base.Add(signed)
		committed[i].RunningBalance = base
		running[committed[i].AccountID] = base
	}

	ts.lastSequenceNo++
	entry.SequenceNo = ts.lastSequenceNo
	entry.TenantID = tenantID

	for accountID, change := range balanceChanges {
		account := ts.accounts[accountID]
		account.Balance = account.Balance.Add(change)
		ts.accounts[accountID] = account
	}

	if entry.OriginalEntryID != nil {
		original := ts.entries[*entry.OriginalEntryID]
		original.Status = domain.Reversed
		original.ReversingEntryID = &entry.EntryID
		original.LastUpdatedBy = entry.CreatedBy
		original.LastUpdatedAt = entry.CreatedAt
		ts.entries[*entry.OriginalEntryID] = original
	}

	entry.Postings = committed
	ts.entries[entry.EntryID] = entry
	ts.entryOrder = append(ts.entryOrder, entry.EntryID)
	ts.postings[entry.EntryID] = committed

	result := entry
	return &result, nil
}

func (s *Store) FindEntryByID(_ context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	entry.Postings = nil
	return &entry, nil
}

func (s *Store) FindPostingsByEntryID(_ context.Context, tenantID string, entryID string) ([]domain.Posting, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	postings, ok := ts.postings[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := make([]domain.Posting, len(postings))
	copy(out, postings)
	return out, nil
}

func (s *Store) ListEntries(_ context.Context, tenantID string, periodID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	var afterSequence int64
	if nextToken != nil && *nextToken != "" {
		afterSequence, err = pagination.DecodeSequenceToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
	}

	page := []domain.JournalEntry{}
	var more bool
	for _, entryID := range ts.entryOrder {
		entry := ts.entries[entryID]
		if entry.PeriodID != periodID || entry.SequenceNo <= afterSequence {
			continue
		}
		if len(page) == limit {
			more = true
			break
		}
		postings := ts.postings[entryID]
		entry.Postings = make([]domain.Posting, len(postings))
		copy(entry.Postings, postings)
		page = append(page, entry)
	}

	var token *string
	if more && len(page) > 0 {
		t := pagination.EncodeSequenceToken(page[len(page)-1].SequenceNo)
		token = &t
	}
	return page, token, nil
}

func (s *Store) GetAccountBalance(_ context.Context, tenantID string, accountID string, asOf time.Time) (decimal.Decimal, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	account, ok := ts.accounts[accountID]
	if !ok {
		return decimal.Zero, apperrors.ErrNotFound
	}

	balance := decimal.Zero
	for _, entryID := range ts.entryOrder {
		entry := ts.entries[entryID]
		if entry.EntryDate.After(asOf) {
			continue
		}
		for _, p := range ts.postings[entryID] {
			if p.AccountID != accountID {
				continue
			}
			signed, err := accounting.SignedAmount(p, account.AccountType)
			if err != nil {
				return decimal.Zero, err
			}
			balance = balance.Add(signed)
		}
	}
	return balance, nil
}

func (s *Store) SumAccountActivity(_ context.Context, tenantID string, periodID string) ([]domain.AccountActivity, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	byAccount := map[string]*domain.AccountActivity{}
	for _, entryID := range ts.entryOrder {
		entry := ts.entries[entryID]
		if entry.PeriodID != periodID {
			continue
		}
		for _, p := range ts.postings[entryID] {
			activity, ok := byAccount[p.AccountID]
			if !ok {
				activity = &domain.AccountActivity{AccountID: p.AccountID}
				byAccount[p.AccountID] = activity
			}
			if p.Side == domain.Debit {
				activity.TotalDebits = activity.TotalDebits.Add(p.Amount)
			} else {
				activity.TotalCredits = activity.TotalCredits.Add(p.Amount)
			}
		}
	}

	activities := make([]domain.AccountActivity, 0, len(byAccount))
	for _, a := range byAccount {
		activities = append(activities, *a)
	}
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].AccountID < activities[j].AccountID
	})
	return activities, nil
}

func (s *Store) SumLedgerTotals(_ context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	debits, credits := decimal.Zero, decimal.Zero
	for _, postings := range ts.postings {
		for _, p := range postings {
			if p.Side == domain.Debit {
				debits = debits.Add(p.Amount)
			} else {
				credits = credits.Add(p.Amount)
			}
		}
	}
	return debits, credits, nil
}

// --- AccountRepositoryFacade ---

func (s *Store) SaveAccount(_ context.Context, tenantID string, account domain.Account) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, existing := range ts.accounts {
		if existing.Code == account.Code {
			return fmt.Errorf("%w: account code %s already exists", apperrors.ErrDuplicate, account.Code)
		}
	}
	account.TenantID = tenantID
	ts.accounts[account.AccountID] = account
	return nil
}

func (s *Store) FindAccountByID(_ context.Context, tenantID string, accountID string) (*domain.Account, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	account, ok := ts.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &account, nil
}

func (s *Store) FindAccountsByIDs(_ context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	found := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := ts.accounts[id]; ok {
			found[id] = account
		}
	}
	return found, nil
}

func (s *Store) ListAccounts(_ context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	all := make([]domain.Account, 0, len(ts.accounts))
	for _, a := range ts.accounts {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) UpdateAccount(_ context.Context, tenantID string, account domain.Account) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	existing, ok := ts.accounts[account.AccountID]
	if !ok {
		return apperrors.NewNotFoundError("account " + account.AccountID + " not found for update")
	}
	existing.Name = account.Name
	existing.Description = account.Description
	existing.IsActive = account.IsActive
	existing.LastUpdatedAt = account.LastUpdatedAt
	existing.LastUpdatedBy = account.LastUpdatedBy
	ts.accounts[account.AccountID] = existing
	return nil
}

// --- PeriodRepositoryFacade ---

func (s *Store) SavePeriod(_ context.Context, tenantID string, period domain.AccountingPeriod) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	period.TenantID = tenantID
	ts.periods[period.PeriodID] = period
	return nil
}

func (s *Store) FindPeriodByID(_ context.Context, tenantID string, periodID string) (*domain.AccountingPeriod, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	period, ok := ts.periods[periodID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &period, nil
}

func (s *Store) FindPeriodForDate(_ context.Context, tenantID string, date time.Time) (*domain.AccountingPeriod, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, period := range ts.periods {
		if period.Contains(date) {
			p := period
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) ListPeriods(_ context.Context, tenantID string) ([]domain.AccountingPeriod, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	periods := make([]domain.AccountingPeriod, 0, len(ts.periods))
	for _, p := range ts.periods {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].StartDate.Before(periods[j].StartDate) })
	return periods, nil
}

// TransitionPeriodStatus performs the status compare-and-set under the
// tenant's write lock. Holding that lock is the in-memory equivalent of the
// commit barrier: no append can be mid-flight while the transition runs.
func (s *Store) TransitionPeriodStatus(_ context.Context, tenantID string, periodID string, from domain.PeriodStatus, to domain.PeriodStatus, updatedBy string, updatedAt time.Time) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	period, ok := ts.periods[periodID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if period.Status != from {
		return apperrors.ErrConcurrentModification
	}
	period.Status = to
	period.LastUpdatedBy = updatedBy
	period.LastUpdatedAt = updatedAt
	ts.periods[periodID] = period
	return nil
}

func (s *Store) SavePeriodEvent(_ context.Context, tenantID string, event domain.PeriodEvent) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	event.TenantID = tenantID
	ts.periodEvents = append(ts.periodEvents, event)
	return nil
}

func (s *Store) ListPeriodEvents(_ context.Context, tenantID string, periodID string) ([]domain.PeriodEvent, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	events := []domain.PeriodEvent{}
	for _, e := range ts.periodEvents {
		if e.PeriodID == periodID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *Store) SavePeriodBalances(_ context.Context, tenantID string, balances []domain.PeriodBalance) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for _, b := range balances {
		byAccount, ok := ts.periodBalances[b.PeriodID]
		if !ok {
			byAccount = map[string]domain.PeriodBalance{}
			ts.periodBalances[b.PeriodID] = byAccount
		}
		b.TenantID = tenantID
		byAccount[b.AccountID] = b
	}
	return nil
}

func (s *Store) ListPeriodBalances(_ context.Context, tenantID string, periodID string) ([]domain.PeriodBalance, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	balances := []domain.PeriodBalance{}
	for _, b := range ts.periodBalances[periodID] {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].AccountID < balances[j].AccountID })
	return balances, nil
}

// --- TenantRepositoryFacade ---

func (s *Store) SaveTenant(_ context.Context, tenant domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenant.TenantID]; ok {
		return fmt.Errorf("%w: tenant %s already exists", apperrors.ErrDuplicate, tenant.TenantID)
	}
	s.tenants[tenant.TenantID] = &tenantState{
		tenant:         tenant,
		memberships:    map[string]domain.TenantUser{},
		accounts:       map[string]domain.Account{},
		periods:        map[string]domain.AccountingPeriod{},
		periodBalances: map[string]map[string]domain.PeriodBalance{},
		entries:        map[string]domain.JournalEntry{},
		postings:       map[string][]domain.Posting{},
	}
	return nil
}

func (s *Store) FindTenantByID(_ context.Context, tenantID string) (*domain.Tenant, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	tenant := ts.tenant
	return &tenant, nil
}

func (s *Store) UpdateTenant(_ context.Context, tenant domain.Tenant) error {
	ts, err := s.tenantState(tenant.TenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	existing := ts.tenant
	existing.Name = tenant.Name
	existing.Description = tenant.Description
	existing.DefaultCurrencyCode = tenant.DefaultCurrencyCode
	existing.IsActive = tenant.IsActive
	existing.LastUpdatedAt = tenant.LastUpdatedAt
	existing.LastUpdatedBy = tenant.LastUpdatedBy
	ts.tenant = existing
	return nil
}

func (s *Store) ListTenantsByUser(_ context.Context, userID string) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := []domain.Tenant{}
	for _, ts := range s.tenants {
		ts.mu.Lock()
		membership, ok := ts.memberships[userID]
		if ok && membership.Role != domain.RoleRemoved && ts.tenant.IsActive {
			tenants = append(tenants, ts.tenant)
		}
		ts.mu.Unlock()
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].Name < tenants[j].Name })
	return tenants, nil
}

func (s *Store) AddUserToTenant(_ context.Context, tenantID string, membership domain.TenantUser) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	membership.TenantID = tenantID
	ts.memberships[membership.UserID] = membership
	return nil
}

func (s *Store) FindTenantUser(_ context.Context, tenantID string, userID string) (*domain.TenantUser, error) {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	membership, ok := ts.memberships[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &membership, nil
}

func (s *Store) SetLedgerHalted(_ context.Context, tenantID string, reason string, at time.Time) error {
	ts, err := s.tenantState(tenantID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.tenant.LedgerHalted = true
	ts.tenant.LastUpdatedAt = at
	_ = reason // the Postgres store persists it; here the flag is enough
	return nil
}

// --- UserRepositoryFacade ---

func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("%w: username %s already exists", apperrors.ErrDuplicate, user.Username)
		}
	}
	s.users[user.UserID] = user
	return nil
}

func (s *Store) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.UserID]
	if !ok {
		return apperrors.NewNotFoundError("user " + user.UserID + " not found for update")
	}
	existing.Name = user.Name
	existing.IsActive = user.IsActive
	existing.LastUpdatedAt = user.LastUpdatedAt
	existing.LastUpdatedBy = user.LastUpdatedBy
	s.users[user.UserID] = existing
	return nil
}

// --- CurrencyRepositoryFacade ---

func (s *Store) SaveCurrency(_ context.Context, currency domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currencies[currency.CurrencyCode] = currency
	return nil
}

func (s *Store) FindCurrencyByCode(_ context.Context, currencyCode string) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	currency, ok := s.currencies[currencyCode]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &currency, nil
}

func (s *Store) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	currencies := make([]domain.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].CurrencyCode < currencies[j].CurrencyCode })
	return currencies, nil
}
