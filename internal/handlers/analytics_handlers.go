package handlers

import (
	"net/http"

	"leadrank/internal/common"
	"leadrank/internal/config"
	"leadrank/internal/repositories"
	"leadrank/internal/services"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandlers serves the operator dashboard and insights views.
type AnalyticsHandlers struct {
	analyticsService services.AnalyticsService
	leadRepo         repositories.LeadRepository
	tenantRepo       repositories.TenantRepository
}

func NewAnalyticsHandlers(analyticsService services.AnalyticsService, leadRepo repositories.LeadRepository, tenantRepo repositories.TenantRepository) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analyticsService: analyticsService,
		leadRepo:         leadRepo,
		tenantRepo:       tenantRepo,
	}
}

// GetDashboard handles GET /v1/dashboard
func (h *AnalyticsHandlers) GetDashboard(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	dashboard, err := h.analyticsService.Dashboard(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to load dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

// GetInsights handles GET /v1/insights
func (h *AnalyticsHandlers) GetInsights(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	days := common.CoerceInt(c.QueryParam("days"), 0)
	insights, err := h.analyticsService.Insights(c.Request().Context(), tenantID, days)
	if err != nil {
		return common.SendServerError(c, "Failed to compute insights")
	}
	return c.JSON(http.StatusOK, insights)
}

// GetMetrics handles GET /v1/metrics
func (h *AnalyticsHandlers) GetMetrics(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tenant, err := h.tenantRepo.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendNotFoundError(c, "Workspace")
	}

	total, labeled, pending, err := h.leadRepo.CountByState(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to count leads")
	}

	plan := config.PlanByName(tenant.Plan)
	return c.JSON(http.StatusOK, map[string]any{
		"total_leads":      total,
		"labeled_leads":    labeled,
		"pending_leads":    pending,
		"plan":             plan.Name,
		"lead_limit_month": plan.LeadLimitMonth,
		"usage_month":      tenant.UsageMonth,
		"leads_used_month": tenant.LeadsUsedMonth,
	})
}
