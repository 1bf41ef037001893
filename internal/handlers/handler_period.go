package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
)

// periodHandler handles accounting period lifecycle requests.
type periodHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newPeriodHandler(reconciliationService portssvc.ReconciliationSvcFacade) *periodHandler {
	return &periodHandler{reconciliationService: reconciliationService}
}

// createPeriod godoc
// @Summary Create an accounting period
// @Description Opens a new posting window; periods must not overlap
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   period body dto.CreatePeriodRequest true "Period details"
// @Success 201 {object} dto.PeriodResponse "The created period"
// @Failure 400 {object} map[string]string "Invalid date range"
// @Failure 409 {object} map[string]string "Overlaps an existing period"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods [post]
func (h *periodHandler) createPeriod(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	period, err := h.reconciliationService.CreatePeriod(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to create period")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period created",
		slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

// listPeriods godoc
// @Summary List the tenant's accounting periods
// @Tags periods
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Success 200 {object} dto.ListPeriodsResponse "All periods with their status"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods [get]
func (h *periodHandler) listPeriods(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	periods, err := h.reconciliationService.ListPeriods(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err, "Failed to list periods")
		return
	}

	resp := dto.ListPeriodsResponse{Periods: make([]dto.PeriodResponse, len(periods))}
	for i := range periods {
		resp.Periods[i] = dto.ToPeriodResponse(&periods[i])
	}
	c.JSON(http.StatusOK, resp)
}

// closePeriod godoc
// @Summary Close an accounting period
// @Description Drives the period through its closing barrier and snapshots closing balances; closing a closed period is a no-op
// @Tags periods
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   periodID path string true "Period ID"
// @Success 200 {object} dto.ClosePeriodResponse "Resulting period status"
// @Failure 404 {object} map[string]string "Period not found"
// @Failure 409 {object} map[string]string "Lost a race with a concurrent close"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods/{periodID}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	periodID := c.Param("periodID")
	status, err := h.reconciliationService.ClosePeriod(c.Request.Context(), tenantID, periodID, userID)
	if err != nil {
		respondError(c, err, "Failed to close period")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period closed",
		slog.String("period_id", periodID))
	c.JSON(http.StatusOK, dto.ClosePeriodResponse{PeriodID: periodID, Status: status})
}

// reopenPeriod godoc
// @Summary Reopen a closed accounting period
// @Description Records a mandatory audit reason before the period accepts postings again
// @Tags periods
// @Accept  json
// @Param   tenantID path string true "Tenant ID"
// @Param   periodID path string true "Period ID"
// @Param   request body dto.ReopenPeriodRequest true "Reopen justification"
// @Success 204 "Period reopened"
// @Failure 400 {object} map[string]string "Missing reason"
// @Failure 409 {object} map[string]string "Period is not closed"
// @Security BearerAuth
// @Router /tenants/{tenantID}/periods/{periodID}/reopen [post]
func (h *periodHandler) reopenPeriod(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	periodID := c.Param("periodID")
	if err := h.reconciliationService.ReopenPeriod(c.Request.Context(), tenantID, periodID, req.Reason, userID); err != nil {
		respondError(c, err, "Failed to reopen period")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Period reopened",
		slog.String("period_id", periodID), slog.String("reason", req.Reason))
	c.Status(http.StatusNoContent)
}

// registerPeriodRoutes registers period lifecycle routes under the
// tenant-scoped group.
func registerPeriodRoutes(scoped *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newPeriodHandler(services.Reconciliation)

	periods := scoped.Group("/periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.POST("/:periodID/close", h.closePeriod)
		periods.POST("/:periodID/reopen", h.reopenPeriod)
	}
}
