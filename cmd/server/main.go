// Command server starts the compatibility matching HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/talentbridge/match-engine/internal/adapter/httpserver"
	"github.com/talentbridge/match-engine/internal/adapter/observability"
	"github.com/talentbridge/match-engine/internal/adapter/queue/redpanda"
	"github.com/talentbridge/match-engine/internal/adapter/repo/postgres"
	"github.com/talentbridge/match-engine/internal/app"
	"github.com/talentbridge/match-engine/internal/config"
	"github.com/talentbridge/match-engine/internal/match"
	"github.com/talentbridge/match-engine/internal/service/ratelimiter"
	"github.com/talentbridge/match-engine/internal/usecase"
)

// redisAdapter narrows *redis.Client to the readiness interface.
type redisAdapter struct{ *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult { return r.Client.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, match, and task instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: DB pool
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories
	profileRepo := postgres.NewProfileRepo(pool)
	matchRepo := postgres.NewMatchRepo(pool)
	taskRepo := postgres.NewTaskRepo(pool)

	// Dev seeding of portal-owned profile tables
	if cfg.SeedFile != "" && cfg.IsDev() {
		if err := seedProfilesFromYAML(ctx, profileRepo, cfg.SeedFile); err != nil {
			slog.Error("profile seeding failed", slog.Any("error", err))
		} else {
			slog.Info("profile seeding done", slog.String("file", cfg.SeedFile))
		}
	}

	// Redis client for the shared recompute cooldown
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

	// Event producer (Redpanda)
	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer producer.Close()

	// Scoring weights: built-in defaults, optionally overridden from file.
	weights := match.DefaultWeights()
	if cfg.WeightsFile != "" {
		weights, err = match.LoadWeights(cfg.WeightsFile)
		if err != nil {
			slog.Error("weights load failed", slog.Any("error", err), slog.String("file", cfg.WeightsFile))
			os.Exit(1)
		}
		slog.Info("weights loaded", slog.String("file", cfg.WeightsFile))
	}

	// Usecases
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

	// Readiness checks
	var redisClient app.RedisClient
	if rdb != nil {
		redisClient = redisAdapter{rdb}
	}
	dbCheck, redisCheck, kafkaCheck := app.BuildReadinessChecks(pool, redisClient, producer)

	// HTTP server
	srv := httpserver.NewServer(cfg, matchSvc, reevalSvc, dbCheck, redisCheck, kafkaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
