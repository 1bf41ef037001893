package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const tenantIDKey = contextKey("tenantID")

// TenantContextMiddleware binds the tenant identifier from the route into
// the request context. Ledger routes are always nested under a tenant; a
// request that reaches them without a tenant ID is rejected here, so no
// handler or service ever runs with an ambient or defaulted tenant.
func TenantContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Param("tenantID")
		if tenantID == "" {
			GetLoggerFromCtx(c.Request.Context()).Warn("Tenant ID missing from route")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "tenant identifier is required"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), tenantIDKey, tenantID)
		ctx = context.WithValue(ctx, loggerCtxKey,
			GetLoggerFromCtx(c.Request.Context()).With(slog.String("tenant_id", tenantID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantIDFromContext retrieves the bound tenant ID from the Gin context.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	tenantIDVal := c.Request.Context().Value(tenantIDKey)
	if tenantIDVal == nil {
		return "", false
	}

	tenantID, ok := tenantIDVal.(string)
	if !ok || tenantID == "" {
		return "", false
	}

	return tenantID, true
}
