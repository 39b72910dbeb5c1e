package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lexledger/backend/internal/infrastructure/auth"
	"github.com/lexledger/backend/internal/infrastructure/config"
	"github.com/lexledger/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine() *gin.Engine {
	cfg := &config.Config{}
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "lexledger-test",
	})
	return New(Config{
		AppConfig:      cfg,
		Logger:         zap.NewNop(),
		JWTService:     jwtService,
		PaymentHandler: handler.NewPaymentHandler(nil, nil),
	})
}

func TestRouterRegistersPaymentRoutes(t *testing.T) {
	engine := newTestEngine()

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"POST /api/v1/payments",
		"GET /api/v1/payments",
		"GET /api/v1/payments/summary",
		"GET /api/v1/payments/unreconciled",
		"GET /api/v1/payments/pending-checks",
		"POST /api/v1/payments/bulk-delete",
		"GET /api/v1/payments/:id",
		"PUT /api/v1/payments/:id",
		"DELETE /api/v1/payments/:id",
		"POST /api/v1/payments/:id/complete",
		"POST /api/v1/payments/:id/fail",
		"POST /api/v1/payments/:id/refund",
		"POST /api/v1/payments/:id/reconcile",
		"PUT /api/v1/payments/:id/apply",
		"DELETE /api/v1/payments/:id/unapply/:invoiceId",
		"PUT /api/v1/payments/:id/check-status",
		"POST /api/v1/payments/:id/send-receipt",
		"POST /api/v1/invoices/:invoiceId/payments",
		"GET /health",
	}
	for _, route := range expected {
		assert.True(t, routes[route], "missing route %s", route)
	}
}

func TestRouterRejectsUnauthenticatedAPIRequests(t *testing.T) {
	engine := newTestEngine()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
