// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devotional-ai-service/internal/config"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/domain/ports/repository"
	aiAdapters "devotional-ai-service/internal/infra/adapters/ai"
	"devotional-ai-service/internal/infra/logging"
	"devotional-ai-service/internal/infra/memory"
	"devotional-ai-service/internal/infra/metrics"
	red "devotional-ai-service/internal/infra/redis"
	"devotional-ai-service/internal/infra/web"
	"devotional-ai-service/internal/infra/worker"
	"devotional-ai-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Store and limiter (in-process by default, Redis when configured) ----
	var store repository.JobStore
	var limiter repository.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		store = red.NewJobStore(redisClient, cfg.Jobs.MaxAge, logger)
		limiter = red.NewRateLimiter(redisClient, cfg.Limits)
		logger.Info().Str("url", cfg.Redis.URL).Msg("using redis-backed store and limiter")
	} else {
		store = memory.NewJobStore(logger)
		limiter = memory.NewRateLimiter(cfg.Limits)
	}

	// ---- AI adapter ----
	var ai adapter.AIServiceAdapter
	switch cfg.AI.Provider {
	case "gemini":
		ai, err = aiAdapters.NewGeminiAdapter(cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model,
			cfg.AI.MaxRetries, cfg.AI.InitialBackoff, cfg.AI.Timeout)
	case "gemini-sdk":
		ai, err = aiAdapters.NewGenAIAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model)
	case "openai":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model, cfg.AI.MaxRetries)
	case "noop":
		ai = aiAdapters.NewNoopAIAdapter()
	}
	if err != nil {
		log.Fatalf("ai adapter (%s): %v", cfg.AI.Provider, err)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)
	logger.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("ai adapter ready")

	// ---- Worker pool ----
	pool := worker.NewPool(cfg.Jobs.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Orchestrator and HTTP facade ----
	uc := usecase.NewReflectionUseCase(store, ai, pool, cfg.Jobs.MaxAge, cfg.Jobs.CleanupDelay, logger)
	srv := web.NewServer(uc, limiter, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}
