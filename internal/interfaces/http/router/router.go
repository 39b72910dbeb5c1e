package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lexledger/backend/internal/infrastructure/auth"
	"github.com/lexledger/backend/internal/infrastructure/config"
	"github.com/lexledger/backend/internal/infrastructure/logger"
	"github.com/lexledger/backend/internal/infrastructure/persistence"
	"github.com/lexledger/backend/internal/interfaces/http/handler"
	"github.com/lexledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config carries the collaborators the router wires together
type Config struct {
	AppConfig      *config.Config
	Logger         *zap.Logger
	Database       *persistence.Database
	JWTService     *auth.JWTService
	PaymentHandler *handler.PaymentHandler
}

// New builds the gin engine with the full middleware chain and all routes
// registered under /api/v1.
func New(cfg Config) *gin.Engine {
	if cfg.AppConfig.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.AppConfig.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.AppConfig.HTTP.TrustedProxies); err != nil {
			cfg.Logger.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.CORS(
		cfg.AppConfig.HTTP.CORSAllowOrigins,
		cfg.AppConfig.HTTP.CORSAllowMethods,
		cfg.AppConfig.HTTP.CORSAllowHeaders,
	))

	// Health check lives outside API versioning and authentication
	engine.GET("/health", healthHandler(cfg.Database))

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWTService))

	registerPaymentRoutes(api, cfg.PaymentHandler)

	return engine
}

func registerPaymentRoutes(api *gin.RouterGroup, h *handler.PaymentHandler) {
	payments := api.Group("/payments")
	payments.POST("", h.Create)
	payments.GET("", h.List)
	payments.GET("/summary", h.Summary)
	payments.GET("/unreconciled", h.Unreconciled)
	payments.GET("/pending-checks", h.PendingChecks)
	payments.POST("/bulk-delete", h.BulkDelete)
	payments.GET("/:id", h.Get)
	payments.PUT("/:id", h.Update)
	payments.DELETE("/:id", h.Delete)
	payments.POST("/:id/complete", h.Complete)
	payments.POST("/:id/fail", h.Fail)
	payments.POST("/:id/refund", h.Refund)
	payments.POST("/:id/reconcile", h.Reconcile)
	payments.PUT("/:id/apply", h.Apply)
	payments.DELETE("/:id/unapply/:invoiceId", h.Unapply)
	payments.PUT("/:id/check-status", h.UpdateCheckStatus)
	payments.POST("/:id/send-receipt", h.SendReceipt)

	api.POST("/invoices/:invoiceId/payments", h.RecordInvoicePayment)
}

// healthHandler reports liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			reqLog := logger.GetGinLogger(c)
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
