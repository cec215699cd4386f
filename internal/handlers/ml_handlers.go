package handlers

import (
	"net/http"

	"leadrank/internal/common"
	"leadrank/internal/services"

	"github.com/labstack/echo/v4"
)

// MLHandlers exposes the calibration and batch recalculation
// operations of a workspace.
type MLHandlers struct {
	calibrationService services.CalibrationService
}

func NewMLHandlers(calibrationService services.CalibrationService) *MLHandlers {
	return &MLHandlers{calibrationService: calibrationService}
}

// AutoThreshold handles POST /v1/ml/auto_threshold
func (h *MLHandlers) AutoThreshold(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	result, err := h.calibrationService.RecalibrateThreshold(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to recalibrate threshold")
	}
	return c.JSON(http.StatusOK, result)
}

// RecalcPending handles POST /v1/ml/recalc_pending
func (h *MLHandlers) RecalcPending(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit := common.CoerceInt(c.QueryParam("limit"), 0)
	result, err := h.calibrationService.RecalculatePending(c.Request().Context(), tenantID, limit)
	if err != nil {
		return common.SendServerError(c, "Failed to recalculate pending leads")
	}
	return c.JSON(http.StatusOK, result)
}

// GetThreshold handles GET /v1/ml/threshold
func (h *MLHandlers) GetThreshold(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	record, err := h.calibrationService.Threshold(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to load threshold")
	}
	return c.JSON(http.StatusOK, record)
}
