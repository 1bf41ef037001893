package repositories

// RepositoryProvider bundles every repository facade an implementation must
// supply. Both the pgsql store and the in-memory store populate one of these.
type RepositoryProvider struct {
	LedgerRepo   LedgerRepositoryFacade
	AccountRepo  AccountRepositoryFacade
	PeriodRepo   PeriodRepositoryFacade
	TenantRepo   TenantRepositoryFacade
	UserRepo     UserRepositoryFacade
	CurrencyRepo CurrencyRepositoryFacade
}
