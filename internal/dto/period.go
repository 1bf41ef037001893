package dto

import (
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// CreatePeriodRequest defines the data needed to open a new accounting period.
type CreatePeriodRequest struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// ReopenPeriodRequest carries the mandatory justification for reopening.
type ReopenPeriodRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PeriodResponse defines the data returned for an accounting period.
type PeriodResponse struct {
	PeriodID  string              `json:"periodID"`
	TenantID  string              `json:"tenantID"`
	Name      string              `json:"name"`
	StartDate time.Time           `json:"startDate"`
	EndDate   time.Time           `json:"endDate"`
	Status    domain.PeriodStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ToPeriodResponse converts a domain.AccountingPeriod to a PeriodResponse.
func ToPeriodResponse(p *domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:  p.PeriodID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// ListPeriodsResponse wraps the list of periods for a tenant.
type ListPeriodsResponse struct {
	Periods []PeriodResponse `json:"periods"`
}

// ClosePeriodResponse reports the resulting status of a close request.
type ClosePeriodResponse struct {
	PeriodID string              `json:"periodID"`
	Status   domain.PeriodStatus `json:"status"`
}
