package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oficios-mz/backend/internal/config"
	"github.com/oficios-mz/backend/internal/db"
	"github.com/oficios-mz/backend/internal/goroutine"
	httpHandlers "github.com/oficios-mz/backend/internal/http/handlers"
	httpRouter "github.com/oficios-mz/backend/internal/http/router"
	"github.com/oficios-mz/backend/internal/logger"
	"github.com/oficios-mz/backend/internal/mercadopago"
	"github.com/oficios-mz/backend/internal/repository"
	"github.com/oficios-mz/backend/internal/retry"
	"github.com/oficios-mz/backend/internal/service"
	"github.com/oficios-mz/backend/internal/storage"
	"github.com/oficios-mz/backend/internal/ws"
)

func main() {
	// Contexto para el graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: error al cargar la configuración: %v", err)
	}

	// Logger
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Base de datos y migraciones.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: error al conectar con la base: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: error en las migraciones: %v", err)
	}

	// Servicios auxiliares.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)
	mpClient := mercadopago.NewClient(cfg.MercadoPagoBaseURL, cfg.MercadoPagoToken)
	verifier := mercadopago.NewSignatureVerifier(cfg.MercadoPagoSecret)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.EvidenceStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: no se pudo preparar el almacenamiento de evidencia: %v", err)
	}

	// Repositorios.
	paymentRepo := repository.NewPaymentRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	subscriptionRepo := repository.NewPushSubscriptionRepository(dbConn)
	ratingRepo := repository.NewRatingRepository(dbConn)

	// WebSockets.
	hub := ws.NewHub()
	go hub.Run()

	// Servicios.
	notificationService := service.NewNotificationService(notificationRepo, subscriptionRepo, hub)
	paymentService := service.NewPaymentService(paymentRepo, jobRepo, mpClient, notificationService, service.PaymentServiceConfig{
		WebhookURL:       cfg.WebhookURL(),
		FrontendURL:      cfg.FrontendURL,
		AutoReleaseAfter: cfg.AutoReleaseAfter,
	})
	webhookService := service.NewWebhookService(verifier, mpClient, paymentRepo, jobRepo, notificationService, retry.Policy{
		MaxAttempts: cfg.WebhookMaxRetries,
		Delay:       cfg.WebhookRetryDelay,
	})
	disputeService := service.NewDisputeService(disputeRepo, paymentRepo, notificationService)
	ratingService := service.NewRatingService(ratingRepo, paymentRepo, notificationService)
	verificationService := service.NewVerificationService(&service.StubFaceMatcher{Confidence: 0.9}, userRepo)

	// Liberación automática de pagos retenidos demasiado tiempo.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := paymentService.AutoReleaseStale(ctx); err != nil {
					logger.Log.WithError(err).Warn("Fallo en la liberación automática")
				}
			}
		}
	})

	// Handlers HTTP.
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService, webhookService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService, evidenceStorage)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	ratingHandler := httpHandlers.NewRatingHandler(ratingService)
	verificationHandler := httpHandlers.NewVerificationHandler(verificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg,
		paymentHandler, disputeHandler, notificationHandler, ratingHandler,
		verificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Apagamos el servidor al recibir la señal.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: error al detener el servidor http: %v", err)
		}
	}()

	log.Printf("main: servidor HTTP escuchando en el puerto %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: el servidor terminó con error: %v", err)
	}
}

// safeClose cierra la conexión con la base.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: error al cerrar la base: %v", err)
	}
}
