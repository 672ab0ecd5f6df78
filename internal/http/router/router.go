package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oficios-mz/backend/internal/config"
	"github.com/oficios-mz/backend/internal/http/handlers"
	"github.com/oficios-mz/backend/internal/http/middleware"
	"github.com/oficios-mz/backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	notificationHandler *handlers.NotificationHandler,
	ratingHandler *handlers.RatingHandler,
	verificationHandler *handlers.VerificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.StaticFS("/evidence", http.Dir(cfg.EvidenceStoragePath))

	api := r.Group("/api")

	// El webhook no lleva autenticación de usuario: lo firma el
	// procesador. Tiene su propio rate limit, más generoso.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit*10, cfg.RateLimitPeriod)
	api.POST("/payments/webhook", webhookRateLimit, paymentHandler.Webhook)

	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		// Pagos
		protected.POST("/payments", paymentHandler.Create)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), paymentHandler.Get)
		protected.GET("/payments/job/:jobId", middleware.UUIDValidator("jobId"), paymentHandler.GetByJob)
		protected.GET("/payments/user/:userId", middleware.UUIDValidator("userId"), paymentHandler.ListByUser)
		protected.GET("/payments/user/:userId/stats", middleware.UUIDValidator("userId"), paymentHandler.Stats)
		protected.PATCH("/payments/:id/hold", middleware.UUIDValidator("id"), paymentHandler.Hold)
		protected.PATCH("/payments/:id/release", middleware.UUIDValidator("id"), paymentHandler.Release)

		// Disputas
		protected.POST("/disputes", disputeHandler.Create)
		protected.GET("/disputes", disputeHandler.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)
		protected.POST("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.UploadEvidence)
		protected.GET("/disputes/:id/evidence", middleware.UUIDValidator("id"), disputeHandler.ListEvidence)

		// Notificaciones
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.PATCH("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.POST("/notifications/subscriptions", notificationHandler.Subscribe)
		protected.DELETE("/notifications/subscriptions", notificationHandler.Unsubscribe)

		// Calificaciones
		protected.POST("/ratings", ratingHandler.Create)
		protected.GET("/ratings/user/:userId", middleware.UUIDValidator("userId"), ratingHandler.ListForUser)
		protected.GET("/ratings/user/:userId/summary", middleware.UUIDValidator("userId"), ratingHandler.Summary)

		// Verificación facial
		protected.POST("/verify-face", verificationHandler.VerifyFace)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/disputes", disputeHandler.ListAll)
		admin.PATCH("/disputes/:id/status", middleware.UUIDValidator("id"), disputeHandler.UpdateStatus)
		admin.PATCH("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
		admin.POST("/payments/auto-release", paymentHandler.AutoRelease)
	}

	return r
}
