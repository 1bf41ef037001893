package dto

import (
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// CreateTenantRequest defines the data needed to onboard a new school.
type CreateTenantRequest struct {
	Name                string  `json:"name" binding:"required"`
	Description         string  `json:"description"`
	DefaultCurrencyCode *string `json:"defaultCurrencyCode"`
}

// TenantResponse defines the data returned for a tenant.
type TenantResponse struct {
	TenantID            string    `json:"tenantID"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	DefaultCurrencyCode *string   `json:"defaultCurrencyCode"`
	IsActive            bool      `json:"isActive"`
	LedgerHalted        bool      `json:"ledgerHalted"`
	CreatedAt           time.Time `json:"createdAt"`
}

// ToTenantResponse converts a domain.Tenant to a TenantResponse.
func ToTenantResponse(t *domain.Tenant) TenantResponse {
	return TenantResponse{
		TenantID:            t.TenantID,
		Name:                t.Name,
		Description:         t.Description,
		DefaultCurrencyCode: t.DefaultCurrencyCode,
		IsActive:            t.IsActive,
		LedgerHalted:        t.LedgerHalted,
		CreatedAt:           t.CreatedAt,
	}
}

// ListTenantsResponse wraps the tenants visible to the requesting user.
type ListTenantsResponse struct {
	Tenants []TenantResponse `json:"tenants"`
}

// AddTenantUserRequest adds a user to a tenant with a role.
type AddTenantUserRequest struct {
	UserID string            `json:"userID" binding:"required"`
	Role   domain.TenantRole `json:"role" binding:"required,oneof=ADMIN MEMBER READONLY"`
}
