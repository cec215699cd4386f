package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "leadrank/docs"
	"leadrank/internal/caching"
	"leadrank/internal/config"
	"leadrank/internal/handlers"
	"leadrank/internal/jobs/background"
	"leadrank/internal/middleware"
	"leadrank/internal/repositories"
	"leadrank/internal/services"
	"leadrank/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepository(pool)
	leadRepo := repositories.NewLeadRepository(pool)
	thresholdRepo := repositories.NewThresholdRepository(pool)
	subscriptionRepo := repositories.NewSubscriptionRepository(pool)
	userRepo := repositories.NewUserRepository(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Object storage
	storageSvc, err := services.NewObjectStorageService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Printf("WARN: object storage unavailable, exports will not be archived: %v", err)
		storageSvc = nil
	} else if err := storageSvc.EnsureBucketExists(context.Background(), cfg.ExportBucket); err != nil {
		log.Printf("WARN: failed to ensure export bucket %s: %v", cfg.ExportBucket, err)
	}

	// Services
	scoringSvc := services.NewScoringService(leadRepo, cacheSvc)
	calibrationSvc := services.NewCalibrationService(leadRepo, thresholdRepo, cacheSvc)
	analyticsSvc := services.NewAnalyticsService(leadRepo, thresholdRepo, cacheSvc, cfg.CacheTTL)
	authSvc := services.NewAuthService(userRepo, tenantRepo, cacheSvc, cfg.JWTSecret)
	billingSvc := services.NewBillingService(subscriptionRepo, tenantRepo)
	exportSvc := services.NewExportService(leadRepo, storageSvc, cfg.ExportBucket)

	// Handlers
	leadHandlers := handlers.NewLeadHandlers(scoringSvc, leadRepo)
	mlHandlers := handlers.NewMLHandlers(calibrationSvc)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsSvc, leadRepo, tenantRepo)
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo)
	tenantHandlers := handlers.NewTenantHandlers(tenantRepo, authSvc, cfg.DemoKey)
	webhookHandlers := handlers.NewWebhookHandlers(billingSvc, cfg.BillingWebhookSecret)
	exportHandlers := handlers.NewExportHandlers(exportSvc)
	healthHandlers := handlers.NewHealthHandlers(pool)

	// Background jobs
	scheduler := background.NewJobScheduler(analyticsSvc, leadRepo, tenantRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health and docs (no auth)
	e.GET("/health", healthHandlers.Health)
	e.GET("/ready", healthHandlers.Ready)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Billing webhooks (HMAC verified, no auth)
	e.POST("/webhooks/billing", webhookHandlers.BillingWebhook)

	v1 := e.Group("/v1")

	// Dashboard auth (no credentials required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Capture API: authenticated by workspace API key, rate limited by
	// plan. The score endpoint also caps payload size.
	api := v1.Group("")
	api.Use(middleware.APIKeyMiddleware(tenantRepo))
	api.Use(middleware.RateLimitMiddleware(cacheSvc))

	api.POST("/leads/score", leadHandlers.ScoreLead, echoMiddleware.BodyLimit(cfg.MaxScorePayload))
	api.GET("/leads", leadHandlers.ListLeads)
	api.GET("/leads/:id", leadHandlers.GetLead)
	api.POST("/leads/:id/convert", leadHandlers.ConvertLead)
	api.POST("/leads/:id/deny", leadHandlers.DenyLead)
	api.DELETE("/leads/:id", leadHandlers.DeleteLead)

	api.POST("/ml/auto_threshold", mlHandlers.AutoThreshold)
	api.POST("/ml/recalc_pending", mlHandlers.RecalcPending)
	api.GET("/ml/threshold", mlHandlers.GetThreshold)

	api.GET("/dashboard", analyticsHandlers.GetDashboard)
	api.GET("/insights", analyticsHandlers.GetInsights)
	api.GET("/metrics", analyticsHandlers.GetMetrics)

	api.GET("/export/leads.csv", exportHandlers.ExportLeadsCSV)

	api.GET("/tenant/meta", tenantHandlers.GetMeta)
	api.POST("/tenant/rotate_key", tenantHandlers.RotateAPIKey)

	// Dashboard routes: authenticated by JWT.
	dashboard := v1.Group("")
	dashboard.Use(middleware.JWTMiddleware(cfg.JWTSecret, cfg.AuthJWKSURL))
	dashboard.GET("/auth/me", authHandlers.Me)

	// Operator administration, guarded by the demo key header.
	v1.POST("/admin/set_plan", tenantHandlers.SetPlan)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		if err := e.Shutdown(context.Background()); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("leadrank server v%s starting on port %d", version, cfg.Port)
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
