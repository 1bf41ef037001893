package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/eduledger/school_ledger_app/internal/core/ports/services"
	"github.com/eduledger/school_ledger_app/internal/dto"
	"github.com/eduledger/school_ledger_app/internal/middleware"
)

// entryHandler handles journal entry requests.
type entryHandler struct {
	postingService portssvc.PostingSvcFacade
}

func newEntryHandler(postingService portssvc.PostingSvcFacade) *entryHandler {
	return &entryHandler{postingService: postingService}
}

// postEntry godoc
// @Summary Post a journal entry
// @Description Validates and atomically commits a balanced double-entry journal entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   entry body dto.CreateEntryRequest true "Draft entry with postings"
// @Success 201 {object} dto.EntryResponse "The committed entry with sequence number and resulting balances"
// @Failure 400 {object} map[string]string "Unbalanced entry, bad amounts, or currency mismatch"
// @Failure 422 {object} map[string]string "Target period is closed"
// @Failure 409 {object} map[string]string "Ledger halted or concurrent period close"
// @Security BearerAuth
// @Router /tenants/{tenantID}/entries [post]
func (h *entryHandler) postEntry(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	entry, err := h.postingService.PostEntry(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to post entry")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Entry posted",
		slog.String("entry_id", entry.EntryID), slog.Int64("sequence_no", entry.SequenceNo))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry with its postings
// @Tags entries
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse "The entry"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /tenants/{tenantID}/entries/{entryID} [get]
func (h *entryHandler) getEntry(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entry, err := h.postingService.GetEntryByID(c.Request.Context(), tenantID, c.Param("entryID"), userID)
	if err != nil {
		respondError(c, err, "Failed to get entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List a period's entries in commit order
// @Tags entries
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   periodID query string true "Accounting period ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Continuation token from a previous page"
// @Success 200 {object} dto.ListEntriesResponse "One page of entries"
// @Failure 400 {object} map[string]string "Invalid parameters or token"
// @Failure 404 {object} map[string]string "Period not found"
// @Security BearerAuth
// @Router /tenants/{tenantID}/entries [get]
func (h *entryHandler) listEntries(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindingError(c, err)
		return
	}

	resp, err := h.postingService.ListEntries(c.Request.Context(), tenantID, params, userID)
	if err != nil {
		respondError(c, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseEntry godoc
// @Summary Reverse a journal entry
// @Description Posts a compensating entry with every side flipped and links the pair
// @Tags entries
// @Produce  json
// @Param   tenantID path string true "Tenant ID"
// @Param   entryID path string true "Entry ID to reverse"
// @Success 201 {object} dto.EntryResponse "The reversing entry"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already reversed or is itself a reversal"
// @Security BearerAuth
// @Router /tenants/{tenantID}/entries/{entryID}/reverse [post]
func (h *entryHandler) reverseEntry(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entry, err := h.postingService.ReverseEntry(c.Request.Context(), tenantID, c.Param("entryID"), userID)
	if err != nil {
		respondError(c, err, "Failed to reverse entry")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Entry reversed",
		slog.String("reversing_entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// RegisterEntryRoutes registers journal entry routes under the tenant-scoped
// group. Exported so handler tests can mount it on a bare router.
func RegisterEntryRoutes(scoped *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newEntryHandler(services.Posting)

	entries := scoped.Group("/entries")
	{
		entries.POST("", h.postEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.POST("/:entryID/reverse", h.reverseEntry)
	}
}
