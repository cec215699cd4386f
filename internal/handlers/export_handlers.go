package handlers

import (
	"fmt"
	"net/http"

	"leadrank/internal/common"
	"leadrank/internal/services"

	"github.com/labstack/echo/v4"
)

// ExportHandlers serves workspace data exports.
type ExportHandlers struct {
	exportService services.ExportService
}

func NewExportHandlers(exportService services.ExportService) *ExportHandlers {
	return &ExportHandlers{exportService: exportService}
}

// ExportLeadsCSV handles GET /v1/export/leads.csv
func (h *ExportHandlers) ExportLeadsCSV(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	result, err := h.exportService.ExportCSV(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendServerError(c, "Failed to export leads")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	if result.DownloadURL != "" {
		c.Response().Header().Set("X-Archive-URL", result.DownloadURL)
	}
	return c.Blob(http.StatusOK, "text/csv", result.Content)
}
