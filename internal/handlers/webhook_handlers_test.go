package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadrank/internal/models"
	"leadrank/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBillingService struct {
	mock.Mock
}

func (m *MockBillingService) ProcessWebhookEvent(ctx context.Context, event *services.WebhookEvent) (*models.Subscription, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockBillingService) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

const testWebhookSecret = "whsec_test"

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBillingWebhook_ValidSignature(t *testing.T) {
	billingSvc := new(MockBillingService)
	h := NewWebhookHandlers(billingSvc, testWebhookSecret)

	tenantID := uuid.New()
	billingSvc.On("ProcessWebhookEvent", mock.Anything, mock.MatchedBy(func(event *services.WebhookEvent) bool {
		return event.Type == "payment.approved" && event.TenantID == tenantID.String()
	})).Return(&models.Subscription{TenantID: tenantID, Status: "active"}, nil)

	body := `{"type":"payment.approved","tenant_id":"` + tenantID.String() + `","plan":"pro"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody(body))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.BillingWebhook(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	billingSvc.AssertExpectations(t)
}

func TestBillingWebhook_InvalidSignature(t *testing.T) {
	billingSvc := new(MockBillingService)
	h := NewWebhookHandlers(billingSvc, testWebhookSecret)

	body := `{"type":"payment.approved"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.BillingWebhook(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	billingSvc.AssertNotCalled(t, "ProcessWebhookEvent", mock.Anything, mock.Anything)
}

func TestBillingWebhook_MissingSignature(t *testing.T) {
	billingSvc := new(MockBillingService)
	h := NewWebhookHandlers(billingSvc, testWebhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.BillingWebhook(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestBillingWebhook_EmptySecretAlwaysRejected(t *testing.T) {
	billingSvc := new(MockBillingService)
	h := NewWebhookHandlers(billingSvc, "")

	body := `{}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody(body))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := h.BillingWebhook(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
