package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/handlers"
	"github.com/SAP-F-2025/school-service/internal/notifications"
	"github.com/SAP-F-2025/school-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/internal/utils"
	"github.com/SAP-F-2025/school-service/internal/validator"
	"github.com/SAP-F-2025/school-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Event bus: Kafka when brokers are configured, in-process otherwise
	pubSub, err := events.NewPubSub(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}

	notificationRouter, err := notifications.NewRouter(
		pubSub.Subscriber,
		notifications.NewConsumer(notifications.NewMailer(cfg.Mail, slogLogger), cfg.Mail, slogLogger),
		slogLogger,
	)
	if err != nil {
		log.Fatalf("Failed to initialize notification router: %v", err)
	}

	routerCtx, stopRouter := context.WithCancel(context.Background())
	routerDone, err := notifications.Start(routerCtx, notificationRouter, slogLogger)
	if err != nil {
		stopRouter()
		log.Fatalf("%v", err)
	}

	// Token issuers
	var external services.ExternalVerifier
	if cfg.Casdoor.Enabled() {
		external = auth.NewCasdoorVerifier(cfg.Casdoor)
		logger.Info("External identity provider enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:       repoManager.GetRepository(),
		Logger:     slogLogger,
		Validator:  validator.New(),
		Publisher:  events.NewWatermillPublisher(pubSub.Publisher, slogLogger),
		Tokens:     auth.NewManager(cfg.Auth),
		Activation: auth.NewActivationTokens(cfg.Auth, cache.NewCacheManager(redisClient).Token),
		External:   external,
	}, services.ServiceManagerConfig{
		Policy: authz.Policy{
			EnforceUnenrollOwnership: cfg.Policy.EnforceUnenrollOwnership,
			AdminCanUpdateProfiles:   cfg.Policy.AdminCanUpdateProfiles,
		},
		BaseURL: cfg.BaseURL,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Drain in-flight notifications before closing the bus
	stopRouter()
	select {
	case <-routerDone:
	case <-ctx.Done():
		logger.Warn("Notification router did not stop in time")
	}
	if err := pubSub.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}

	// Closes the database and Redis connections
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
