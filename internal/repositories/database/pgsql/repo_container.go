package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all Postgres-backed repositories over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:   newPgxLedgerRepository(pool),
		AccountRepo:  newPgxAccountRepository(pool),
		PeriodRepo:   newPgxPeriodRepository(pool),
		TenantRepo:   newPgxTenantRepository(pool),
		UserRepo:     newPgxUserRepository(pool),
		CurrencyRepo: newPgxCurrencyRepository(pool),
	}
}
