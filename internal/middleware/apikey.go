package middleware

import (
	"context"
	"net/http"
	"strings"

	"leadrank/internal/common"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/labstack/echo/v4"
)

// tenantContextKey is the echo context key holding the authenticated
// *models.Tenant.
const tenantContextKey = "auth_tenant"

// APIKeyMiddleware authenticates capture-API requests by the X-API-Key
// header and loads the owning workspace into the request context.
func APIKeyMiddleware(tenantRepo repositories.TenantRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if apiKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing API key")
			}

			tenant, err := tenantRepo.GetByAPIKey(c.Request().Context(), apiKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}
			if !tenant.Active() {
				return echo.NewHTTPError(http.StatusForbidden, "Workspace is not active")
			}

			c.Set(tenantContextKey, tenant)
			ctx := context.WithValue(c.Request().Context(), common.TenantIDKey, tenant.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// TenantFromEchoContext returns the workspace loaded by
// APIKeyMiddleware, or nil outside an API-key route.
func TenantFromEchoContext(c echo.Context) *models.Tenant {
	tenant, _ := c.Get(tenantContextKey).(*models.Tenant)
	return tenant
}
