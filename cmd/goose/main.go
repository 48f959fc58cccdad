package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gooseworks/goose-copilot/internal/config"
	"github.com/gooseworks/goose-copilot/internal/handler"
	"github.com/gooseworks/goose-copilot/internal/infra/cache"
	"github.com/gooseworks/goose-copilot/internal/infra/genai"
	"github.com/gooseworks/goose-copilot/internal/infra/memstore"
	"github.com/gooseworks/goose-copilot/internal/infra/observability"
	"github.com/gooseworks/goose-copilot/internal/infra/resilience"
	"github.com/gooseworks/goose-copilot/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("openai_model", cfg.OpenAIModel),
		zap.Duration("genai_timeout", cfg.GenAITimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Float64("proposal_value_tolerance", cfg.ProposalValueTolerance),
	)

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, AI routes will fail")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "goose-copilot", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	summaryCache := cache.New[string](cfg.CacheTTL)
	defer summaryCache.Close()

	// --- Store ---
	store := memstore.NewSeeded()

	// --- Generator (resilience-wrapped OpenAI backend) ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("genai")
	generator := genai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.GenAITimeout, cb, resilienceCfg)

	// --- Services ---
	timelineSvc := service.NewTimelineService(store, logger)
	assembler := service.NewContextAssembler(store, timelineSvc)
	crmSvc := service.NewCRM(store, timelineSvc)
	copilotSvc := service.NewCopilot(store, timelineSvc, assembler, generator, summaryCache, metrics, logger)
	proposalSvc := service.NewProposalService(store, timelineSvc, generator, metrics, logger, cfg.ProposalValueTolerance)
	marketingSvc := service.NewMarketing(generator, metrics, logger)
	demoHash, err := bcrypt.GenerateFromPassword([]byte(cfg.DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("failed to hash demo credential", zap.Error(err))
	}
	authSvc := service.NewAuth(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.DemoEmail, string(demoHash), logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		CRM:           crmSvc,
		Timeline:      timelineSvc,
		Copilot:       copilotSvc,
		Proposals:     proposalSvc,
		Marketing:     marketingSvc,
		Auth:          authSvc,
		WatchInterval: cfg.PollInterval,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
