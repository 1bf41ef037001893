package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
)

// tenantHandler handles tenant onboarding and membership management.
type tenantHandler struct {
	tenantService portssvc.TenantSvcFacade
}

func newTenantHandler(tenantService portssvc.TenantSvcFacade) *tenantHandler {
	return &tenantHandler{tenantService: tenantService}
}

// createTenant godoc
// @Summary Create a new tenant
// @Description Onboards a new school; the creator becomes the tenant admin
// @Tags tenants
// @Accept  json
// @Produce  json
// @Param   tenant body dto.CreateTenantRequest true "Tenant details"
// @Success 201 {object} dto.TenantResponse "The created tenant"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Security BearerAuth
// @Router /tenants [post]
func (h *tenantHandler) createTenant(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create tenant")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Tenant created", slog.String("tenant_id", tenant.TenantID))
	c.JSON(http.StatusCreated, dto.ToTenantResponse(tenant))
}

// listMyTenants godoc
// @Summary List tenants visible to the caller
// @Tags tenants
// @Produce  json
// @Success 200 {object} dto.ListTenantsResponse "Tenants the caller belongs to"
// @Security BearerAuth
// @Router /tenants [get]
func (h *tenantHandler) listMyTenants(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tenants, err := h.tenantService.ListUserTenants(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list tenants")
		return
	}

	resp := dto.ListTenantsResponse{Tenants: make([]dto.TenantResponse, len(tenants))}
	for i := range tenants {
		resp.Tenants[i] = dto.ToTenantResponse(&tenants[i])
	}
	c.JSON(http.StatusOK, resp)
}

// getTenant godoc
// @Summary Get a tenant by ID
// @Tags tenants
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Success 200 {object} dto.TenantResponse "The tenant"
// @Failure 403 {object} map[string]string "Caller is not a member"
// @Failure 404 {object} map[string]string "Tenant not found"
// @Security BearerAuth
// @Router /tenants/{tenantID} [get]
func (h *tenantHandler) getTenant(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.FindTenantByID(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondError(c, err, "Failed to get tenant")
		return
	}

	c.JSON(http.StatusOK, dto.ToTenantResponse(tenant))
}

// deactivateTenant godoc
// @Summary Deactivate a tenant
// @Description Marks the tenant inactive; its data is retained but no longer served
// @Tags tenants
// @Param   tenantID path string true "Tenant ID"
// @Success 204 "Tenant deactivated"
// @Failure 403 {object} map[string]string "Caller is not an admin"
// @Security BearerAuth
// @Router /tenants/{tenantID} [delete]
func (h *tenantHandler) deactivateTenant(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.tenantService.DeactivateTenant(c.Request.Context(), tenantID, userID); err != nil {
		respondError(c, err, "Failed to deactivate tenant")
		return
	}

	c.Status(http.StatusNoContent)
}

// addTenantUser godoc
// @Summary Add or update a tenant member
// @Tags tenants
// @Accept  json
// @Param   tenantID path string true "Tenant ID"
// @Param   membership body dto.AddTenantUserRequest true "User and role"
// @Success 204 "Membership saved"
// @Failure 403 {object} map[string]string "Caller is not an admin"
// @Failure 404 {object} map[string]string "Tenant or user not found"
// @Security BearerAuth
// @Router /tenants/{tenantID}/users [post]
func (h *tenantHandler) addTenantUser(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.AddTenantUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.tenantService.AddUserToTenant(c.Request.Context(), tenantID, userID, req); err != nil {
		respondError(c, err, "Failed to add user to tenant")
		return
	}

	c.Status(http.StatusNoContent)
}

// registerTenantRoutes registers tenant management routes. Tenant-scoped
// routes get the tenant-context middleware so every downstream handler and
// service sees an explicit tenant ID.
func registerTenantRoutes(group *gin.RouterGroup, services *portssvc.ServiceContainer) *gin.RouterGroup {
	h := newTenantHandler(services.Tenant)

	tenants := group.Group("/tenants")
	{
		tenants.POST("", h.createTenant)
		tenants.GET("", h.listMyTenants)
	}

	scoped := tenants.Group("/:tenantID", middleware.TenantContextMiddleware())
	{
		scoped.GET("", h.getTenant)
		scoped.DELETE("", h.deactivateTenant)
		scoped.POST("/users", h.addTenantUser)
	}

	return scoped
}
