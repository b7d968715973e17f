// Package main provides the worker application entry point.
// The worker drains scheduled re-evaluation tasks and recomputes matches.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/talentbridge/match-engine/internal/adapter/observability"
	"github.com/talentbridge/match-engine/internal/adapter/queue/redpanda"
	"github.com/talentbridge/match-engine/internal/adapter/repo/postgres"
	"github.com/talentbridge/match-engine/internal/config"
	"github.com/talentbridge/match-engine/internal/match"
	"github.com/talentbridge/match-engine/internal/service/ratelimiter"
	"github.com/talentbridge/match-engine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Expose task-queue metrics on a dedicated endpoint for scraping.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	profileRepo := postgres.NewProfileRepo(pool)
	matchRepo := postgres.NewMatchRepo(pool)
	taskRepo := postgres.NewTaskRepo(pool)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("redis url parse failed", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()
	}
	limiter := ratelimiter.NewCooldownLimiter(rdb, cfg.RecomputeCooldown)

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	weights := match.DefaultWeights()
	if cfg.WeightsFile != "" {
		weights, err = match.LoadWeights(cfg.WeightsFile)
		if err != nil {
			slog.Error("weights load failed", slog.Any("error", err), slog.String("file", cfg.WeightsFile))
			os.Exit(1)
		}
	}

	matchSvc := usecase.NewMatchService(profileRepo, matchRepo, weights, usecase.MatchServiceConfig{
		ScoreWorkers:   cfg.ScoreWorkers,
		PersistWorkers: cfg.PersistWorkers,
		PersistRetry: usecase.PersistRetry{
			MaxAttempts:     uint64(cfg.PersistMaxAttempts),
			InitialInterval: cfg.PersistInitialInterval,
			MaxInterval:     cfg.PersistMaxInterval,
		},
	})
	reevalSvc := usecase.NewReEvaluationService(taskRepo, matchSvc, producer, limiter, usecase.ReEvaluationConfig{
		PollInterval:  cfg.ReEvalPollInterval,
		BatchSize:     cfg.ReEvalBatchSize,
		StuckAge:      cfg.ReEvalStuckAge,
		SweepInterval: cfg.ReEvalSweepInterval,
	})

	// Blocks until the context is cancelled by a shutdown signal.
	reevalSvc.Run(ctx)
	slog.Info("worker stopped")
}
