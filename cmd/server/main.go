package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizcraft/generation-service/internal/cache"
	"github.com/quizcraft/generation-service/internal/config"
	"github.com/quizcraft/generation-service/internal/events"
	"github.com/quizcraft/generation-service/internal/generation"
	"github.com/quizcraft/generation-service/internal/handlers"
	"github.com/quizcraft/generation-service/internal/llm"
	"github.com/quizcraft/generation-service/internal/repositories/postgres"
	"github.com/quizcraft/generation-service/internal/services"
	"github.com/quizcraft/generation-service/internal/utils"
	rawvalidator "github.com/quizcraft/generation-service/internal/validator"
	"github.com/quizcraft/generation-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	cacheService := cache.NewRedisCache(redisClient, logger)
	repo := postgres.NewRepository(db)

	ctx := context.Background()
	primary, fallback, err := llm.NewProviderPair(ctx, cfg.LLM)
	if err != nil {
		logger.Error("Failed to initialize model providers", "error", err)
		os.Exit(1)
	}

	registry := generation.NewSchemaRegistry()
	orchestrator := generation.NewOrchestrator(
		primary,
		fallback,
		registry,
		llm.DefaultRetryPolicy(cfg.LLM.MaxAttempts),
		logger,
	)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Warn("Failed to create event publisher, using mock", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	defer publisher.Close()

	validator := utils.NewValidator()
	normalizer := rawvalidator.NewQuestionNormalizer()

	generationService := services.NewGenerationService(repo, orchestrator, registry, publisher, cacheService, logger, cfg.LLM)
	testService := services.NewTestService(repo, generationService, normalizer, cacheService, logger, validator)
	submissionService := services.NewSubmissionService(repo, publisher, logger, validator)
	gradingService := services.NewGradingService(repo, publisher, logger, validator)
	exportService := services.NewExportService(repo, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.RequestLogger(logger), gin.Recovery())

	handlerManager := handlers.NewHandlerManager(
		testService,
		generationService,
		submissionService,
		gradingService,
		exportService,
		logger,
	)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
