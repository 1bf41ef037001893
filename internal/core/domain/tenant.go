package domain

import "time"

// Tenant represents an isolated customer (a school). Every ledger entity is
// scoped to exactly one tenant; nothing crosses tenant boundaries.
type Tenant struct {
	TenantID            string  `json:"tenantID"` // Primary Key (UUID)
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	DefaultCurrencyCode *string `json:"defaultCurrencyCode"` // e.g. "USD"
	IsActive            bool    `json:"isActive"`
	// LedgerHalted is set when a trial balance detects an integrity
	// violation. A halted ledger rejects all further writes pending
	// manual audit; it is never cleared automatically.
	LedgerHalted bool `json:"ledgerHalted"`
	AuditFields
}

// TenantRole defines the possible roles a user can have within a tenant.
type TenantRole string

const (
	RoleAdmin    TenantRole = "ADMIN"
	RoleMember   TenantRole = "MEMBER"
	RoleReadOnly TenantRole = "READONLY"
	RoleRemoved  TenantRole = "REMOVED"
)

// Allows reports whether a user holding the role may act at the required
// level. Admin covers everything; member covers member and read-only.
func (r TenantRole) Allows(required TenantRole) bool {
	switch r {
	case RoleAdmin:
		return required != RoleRemoved
	case RoleMember:
		return required == RoleMember || required == RoleReadOnly
	case RoleReadOnly:
		return required == RoleReadOnly
	}
	return false
}

// TenantUser represents the membership of a User in a Tenant.
type TenantUser struct {
	UserID   string     `json:"userID"`   // FK -> users.user_id
	TenantID string     `json:"tenantID"` // FK -> tenants.tenant_id
	Role     TenantRole `json:"role"`
	JoinedAt time.Time  `json:"joinedAt"`
}
