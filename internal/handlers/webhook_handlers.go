package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"leadrank/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers receives billing provider callbacks.
type WebhookHandlers struct {
	billingService services.BillingService
	webhookSecret  string
}

func NewWebhookHandlers(billingService services.BillingService, webhookSecret string) *WebhookHandlers {
	return &WebhookHandlers{billingService: billingService, webhookSecret: webhookSecret}
}

// verifySignature checks the HMAC-SHA256 hex signature over the raw
// body, in constant time.
func (h *WebhookHandlers) verifySignature(signature string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// BillingWebhook handles POST /webhooks/billing
func (h *WebhookHandlers) BillingWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get("X-Webhook-Signature")
	if signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing webhook signature")
	}
	if h.webhookSecret == "" || !h.verifySignature(signature, body) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	var event services.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	subscription, err := h.billingService.ProcessWebhookEvent(c.Request().Context(), &event)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "processed",
		"event":  event.Type,
		"tenant": subscription.TenantID,
	})
}
