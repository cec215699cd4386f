package handlers

import (
	"crypto/subtle"
	"net/http"

	"leadrank/internal/common"
	"leadrank/internal/config"
	"leadrank/internal/repositories"
	"leadrank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandlers handles workspace metadata and administration.
type TenantHandlers struct {
	tenantRepo  repositories.TenantRepository
	authService services.AuthService
	demoKey     string
}

func NewTenantHandlers(tenantRepo repositories.TenantRepository, authService services.AuthService, demoKey string) *TenantHandlers {
	return &TenantHandlers{tenantRepo: tenantRepo, authService: authService, demoKey: demoKey}
}

// GetMeta handles GET /v1/tenant/meta
func (h *TenantHandlers) GetMeta(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tenant, err := h.tenantRepo.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendNotFoundError(c, "Workspace")
	}

	plan := config.PlanByName(tenant.Plan)
	return c.JSON(http.StatusOK, map[string]any{
		"tenant_id":        tenant.ID,
		"name":             tenant.Name,
		"plan":             plan.Name,
		"status":           tenant.Status,
		"lead_limit_month": plan.LeadLimitMonth,
		"usage_month":      tenant.UsageMonth,
		"leads_used_month": tenant.LeadsUsedMonth,
	})
}

// RotateAPIKey handles POST /v1/tenant/rotate_key
func (h *TenantHandlers) RotateAPIKey(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	apiKey, err := h.authService.RotateAPIKey(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to rotate API key")
	}
	return c.JSON(http.StatusOK, map[string]any{"api_key": apiKey})
}

type setPlanRequest struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

// SetPlan handles POST /v1/admin/set_plan. Guarded by the operator demo
// key rather than tenant credentials.
func (h *TenantHandlers) SetPlan(c echo.Context) error {
	provided := c.Request().Header.Get("X-Demo-Key")
	if h.demoKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.demoKey)) != 1 {
		return common.SendUnauthorizedError(c)
	}

	var req setPlanRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid JSON body")
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return common.SendValidationError(c, "tenant_id", "must be a valid UUID")
	}
	if req.Plan != "" && !config.ValidPlan(req.Plan) {
		return common.SendValidationError(c, "plan", "unknown plan")
	}

	if err := h.tenantRepo.UpdatePlanStatus(c.Request().Context(), tenantID, req.Plan, req.Status); err != nil {
		return common.SendServerError(c, "Failed to update workspace")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tenant_id": tenantID,
		"plan":      req.Plan,
		"status":    req.Status,
	})
}
