package services

import (
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/platform/config"
)

// NewServiceContainer wires the service graph. The tenant service comes
// first: every other service authorizes through it.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Tenant = NewTenantService(repos.TenantRepo)
	container.Account = NewAccountService(repos.AccountRepo, repos.CurrencyRepo, container.Tenant)
	container.Posting = NewPostingService(repos.LedgerRepo, repos.AccountRepo, repos.PeriodRepo, repos.CurrencyRepo, container.Tenant)
	container.Reconciliation = NewReconciliationService(repos.PeriodRepo, repos.LedgerRepo, repos.AccountRepo, repos.TenantRepo, container.Tenant)
	container.User = NewUserService(repos.UserRepo)
	container.Auth = NewAuthService(container.User, AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		ExpiryDuration: cfg.JWTExpiryDuration,
		Issuer:         cfg.JWTIssuer,
	})

	return container
}
