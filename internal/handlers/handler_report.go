package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
)

// reportHandler handles ledger reporting requests.
type reportHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReportHandler(reconciliationService portssvc.ReconciliationSvcFacade) *reportHandler {
	return &reportHandler{reconciliationService: reconciliationService}
}

// getTrialBalance godoc
// @Summary Compute the trial balance for a period
// @Description Aggregates per-account activity and asserts ledger-wide debits equal credits. A violation halts the tenant's ledger.
// @Tags reports
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   periodID path string true "Period ID"
// @Success 200 {object} dto.TrialBalanceResponse "The trial balance report"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Ledger integrity violation detected"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods/{periodID}/trial-balance [get]
func (h *reportHandler) getTrialBalance(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	report, err := h.reconciliationService.ComputeTrialBalance(c.Request.Context(), tenantID, c.Param("periodID"), userID)
	if err != nil {
		respondError(c, err, "Failed to compute trial balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(report))
}

// getFinancialSummary godoc
// @Summary Get the revenue/expense summary for a period
// @Description Derives per-account revenue and expense totals and the net result from committed postings
// @Tags reports
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   periodID path string true "Period ID"
// @Success 200 {object} dto.FinancialSummaryResponse "The financial summary"
// @Failure 404 {object} map[string]string "Period not found"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods/{periodID}/summary [get]
func (h *reportHandler) getFinancialSummary(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	summary, err := h.reconciliationService.GetFinancialSummary(c.Request.Context(), tenantID, c.Param("periodID"), userID)
	if err != nil {
		respondError(c, err, "Failed to get financial summary")
		return
	}

	c.JSON(http.StatusOK, dto.ToFinancialSummaryResponse(summary))
}

// registerReportRoutes registers reporting routes under the tenant-scoped
// group. Reports hang off the period they describe.
func registerReportRoutes(scoped *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newReportHandler(services.Reconciliation)

	periods := scoped.Group("/periods")
	{
		periods.GET("/:periodID/trial-balance", h.getTrialBalance)
		periods.GET("/:periodID/summary", h.getFinancialSummary)
	}
}
