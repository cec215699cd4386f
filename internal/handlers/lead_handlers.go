package handlers

import (
	"errors"
	"net/http"

	"leadrank/internal/common"
	"leadrank/internal/middleware"
	"leadrank/internal/models"
	"leadrank/internal/repositories"
	"leadrank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LeadHandlers handles the capture API: scoring submissions and
// recording outcomes.
type LeadHandlers struct {
	scoringService services.ScoringService
	leadRepo       repositories.LeadRepository
}

func NewLeadHandlers(scoringService services.ScoringService, leadRepo repositories.LeadRepository) *LeadHandlers {
	return &LeadHandlers{scoringService: scoringService, leadRepo: leadRepo}
}

// scoreLeadRequest accepts loosely typed values. Site snippets send
// whatever the page had, so numbers arrive as strings or floats and
// must never bounce the submission.
type scoreLeadRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Origin       string `json:"origin"`
	TimeOnSite   any    `json:"time_on_site"`
	PagesVisited any    `json:"pages_visited"`
	ClickedPrice any    `json:"clicked_price"`
}

// ScoreLead handles POST /v1/leads/score
func (h *LeadHandlers) ScoreLead(c echo.Context) error {
	tenant := middleware.TenantFromEchoContext(c)
	if tenant == nil {
		return common.SendUnauthorizedError(c)
	}

	var req scoreLeadRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid JSON body")
	}

	result, err := h.scoringService.ScoreLead(c.Request().Context(), tenant, &services.ScoreRequest{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Origin:       req.Origin,
		TimeOnSite:   common.CoerceInt(req.TimeOnSite, 0),
		PagesVisited: common.CoerceInt(req.PagesVisited, 0),
		ClickedPrice: common.CoerceBool(req.ClickedPrice, false),
	})
	if err != nil {
		var quotaErr *repositories.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return c.JSON(http.StatusPaymentRequired, map[string]any{
				"error": "monthly lead limit reached",
				"plan":  quotaErr.Plan,
				"used":  quotaErr.Used,
				"limit": quotaErr.Limit,
			})
		}
		return common.SendServerError(c, "Failed to score lead")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"lead_id":     result.Lead.ID,
		"probability": result.Probability,
		"score":       result.Score,
		"used_model":  result.UsedModel,
		"temperature": services.LeadTemperature(result.Probability),
	})
}

// ConvertLead handles POST /v1/leads/:id/convert
func (h *LeadHandlers) ConvertLead(c echo.Context) error {
	return h.setOutcome(c, models.OutcomeConverted)
}

// DenyLead handles POST /v1/leads/:id/deny
func (h *LeadHandlers) DenyLead(c echo.Context) error {
	return h.setOutcome(c, models.OutcomeDenied)
}

func (h *LeadHandlers) setOutcome(c echo.Context, outcome int16) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.scoringService.SetOutcome(c.Request().Context(), tenantID, leadID, outcome); err != nil {
		return common.SendNotFoundError(c, "Lead")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"lead_id": leadID,
		"outcome": outcome,
	})
}

// ListLeads handles GET /v1/leads
func (h *LeadHandlers) ListLeads(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset := common.ValidatePaginationParams(
		common.CoerceInt(c.QueryParam("limit"), 50),
		common.CoerceInt(c.QueryParam("offset"), 0),
	)

	leads, err := h.leadRepo.ListRecent(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list leads")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"leads":  leads,
		"limit":  limit,
		"offset": offset,
	})
}

// GetLead handles GET /v1/leads/:id
func (h *LeadHandlers) GetLead(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	lead, err := h.leadRepo.GetByID(c.Request().Context(), tenantID, leadID)
	if err != nil {
		return common.SendNotFoundError(c, "Lead")
	}
	return c.JSON(http.StatusOK, lead)
}

// DeleteLead handles DELETE /v1/leads/:id
func (h *LeadHandlers) DeleteLead(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.leadRepo.SoftDelete(c.Request().Context(), tenantID, leadID); err != nil {
		return common.SendNotFoundError(c, "Lead")
	}
	return c.NoContent(http.StatusNoContent)
}
