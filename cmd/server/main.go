package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/edututor/edututor-backend/internal/database"
	"github.com/edututor/edututor-backend/internal/handler"
	"github.com/edututor/edututor-backend/internal/llm"
	"github.com/edututor/edututor-backend/internal/logger"
	"github.com/edututor/edututor-backend/internal/metrics"
	"github.com/edututor/edututor-backend/internal/middleware"
	"github.com/edututor/edututor-backend/internal/router"
	"github.com/edututor/edututor-backend/internal/service"
	"github.com/edututor/edututor-backend/internal/validator"
	"github.com/rs/zerolog"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterMaxIdle       = 15 * time.Minute
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("store", string(cfg.StoreDriver)).
		Str("llm_provider", cfg.LLMProvider).
		Msg("Starting EduTutor Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect Stores ────────────────────────────────────────────────
	stores, err := database.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer stores.Close()

	// ─── Initialize LLM Provider ───────────────────────────────────────
	generator, err := llm.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM provider")
	}
	if missing := cfg.MissingLLMSettings(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("LLM provider not configured; quiz generation is disabled")
	}
	if missing := cfg.MissingGoogleSettings(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Google sign-in not configured")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	m := metrics.NewDefault()
	authService := service.NewAuthService(cfg, stores.Metadata, stores.Blocklist, log)
	oauthService := service.NewOAuthService(cfg, log)
	quizService := service.NewQuizService(cfg, generator, stores.Sessions, stores.Metadata, m, log)
	resultService := service.NewResultService(stores.Metadata)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, oauthService, quizService),
		Quiz:   handler.NewQuizHandler(quizService),
		Result: handler.NewResultHandler(resultService),
		WS:     handler.NewWSHandler(quizService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(stores.Metadata, stores.Sessions, generator, log),
	}
	limiters := &router.Limiters{
		Auth:     middleware.NewRateLimiter(cfg.AuthRatePerMinute),
		Generate: middleware.NewRateLimiter(cfg.GenerateRatePerMinute),
	}

	// ─── Start Background Sweeper ─────────────────────────────────────
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go sweepLimiters(sweepCtx, limiters)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiters, m, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	// No WriteTimeout: quiz generation holds the request open until the LLM answers.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. In-flight generations get the LLM timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.LLMTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the limiter sweeper.
	sweepCancel()

	log.Info().Msg("Shutdown complete")
}

// sweepLimiters drops idle rate-limit buckets until ctx is cancelled.
func sweepLimiters(ctx context.Context, limiters *router.Limiters) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiters.Auth.Cleanup(limiterMaxIdle)
			limiters.Generate.Cleanup(limiterMaxIdle)
		}
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
