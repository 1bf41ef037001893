package services

// ServiceContainer bundles the application's service facades for injection
// into the handler layer.
type ServiceContainer struct {
	Posting        PostingSvcFacade
	Reconciliation ReconciliationSvcFacade
	Account        AccountSvcFacade
	Tenant         TenantSvcFacade
	User           UserSvcFacade
	Auth           AuthSvcFacade
}
