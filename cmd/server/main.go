package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contaleve/onboarding-backend/config"
	"github.com/contaleve/onboarding-backend/internal/app/controller"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/internal/app/service"
	"github.com/contaleve/onboarding-backend/internal/db"
	"github.com/contaleve/onboarding-backend/internal/middleware"
	"github.com/contaleve/onboarding-backend/internal/router"
	"github.com/contaleve/onboarding-backend/internal/scheduler"
	"github.com/contaleve/onboarding-backend/internal/storage"
	"github.com/contaleve/onboarding-backend/internal/websocket"
	"github.com/contaleve/onboarding-backend/pkg/cache"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
	"github.com/contaleve/onboarding-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Onboarding Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the upstream token store and the profile cache;
	// without it both live in process memory
	tokens := cache.NewMemoryTokenStore()
	profiles := cache.NewMemoryProfileCache()
	if err := cache.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, using in-memory caches", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		tokens = cache.NewTokenStore(cache.GetClient())
		profiles = cache.NewProfileCache(cache.GetClient())
		defer cache.Close()
	}

	// Registration service client
	cronosClient, err := cronos.NewClient(cronos.Config{
		BaseURL:    cfg.Cronos.BaseURL,
		PublicKey:  cfg.Cronos.PublicKey,
		PrivateKey: cfg.Cronos.PrivateKey,
		Timeout:    cfg.Cronos.Timeout,
	}, tokens)
	if err != nil {
		logger.Fatal("Failed to configure registration client", err)
	}
	logger.Info("Registration client configured", map[string]interface{}{
		"base_url": cronosClient.GetConfig().BaseURL,
		"timeout":  cronosClient.GetConfig().Timeout.String(),
	})

	// Document archive (optional)
	var archiver service.DocumentArchiver
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.Prefix,
	)
	if s3Storage.Enabled() {
		archiver = s3Storage
	} else {
		logger.Warn("Document archive disabled: no bucket configured", nil)
	}

	// Status push hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db.GetDB())
	individualRepo := repository.NewIndividualDataRepository(db.GetDB())
	businessRepo := repository.NewBusinessDataRepository(db.GetDB())
	partnerRepo := repository.NewPartnerRepository(db.GetDB())
	documentRepo := repository.NewDocumentRepository(db.GetDB())
	progressRepo := repository.NewProgressRepository(db.GetDB())
	stateRepo := repository.NewStateRepository(db.GetDB())

	// Initialize services; both flows share one lock set so PF and PJ
	// operations on the same customer serialize
	locks := service.NewLocks()
	onboardingService := service.NewOnboardingService(
		customerRepo,
		individualRepo,
		documentRepo,
		progressRepo,
		stateRepo,
		cronosClient,
		hub,
		archiver,
		profiles,
		locks,
	)
	businessService := service.NewBusinessService(
		customerRepo,
		businessRepo,
		partnerRepo,
		documentRepo,
		progressRepo,
		stateRepo,
		cronosClient,
		hub,
		archiver,
		locks,
	)
	authService := service.NewAuthService(customerRepo, cfg.JWT)

	// Initialize controllers
	authController := controller.NewAuthController(authService, cronosClient)
	onboardingController := controller.NewOnboardingController(onboardingService)
	businessController := controller.NewBusinessController(businessService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Background jobs
	jobs := scheduler.NewOnboardingScheduler(
		customerRepo,
		documentRepo,
		businessService,
		cronosClient,
		archiver,
	)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}
	defer jobs.Stop()

	// Setup router
	r := router.NewRouter(
		authController,
		onboardingController,
		businessController,
		authMiddleware,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
