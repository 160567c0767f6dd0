package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soletrack/soletrack-backend/internal/pipeline"
	"github.com/soletrack/soletrack-backend/internal/sources"
	"github.com/soletrack/soletrack-backend/pkg/config"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/metrics"
	"github.com/soletrack/soletrack-backend/pkg/redis"
	"github.com/soletrack/soletrack-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "aggregator"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "aggregator"

	logg = logger.New(logger.Options{
		ServiceName: "aggregator",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	fetcher, err := sources.NewFetcher(sources.FetcherParams{
		Logger:  logg,
		Metrics: pipelineMetrics,
		Timeout: cfg.Aggregation.FetchTimeout,
		Retries: cfg.Aggregation.FetchRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fetcher", err)
		os.Exit(1)
	}

	var lock *pipeline.RunLock
	if cfg.FeatureFlags.SingleFlight {
		lock = pipeline.NewRunLock(redisClient, cfg.Aggregation.RunInterval)
	}

	service, err := pipeline.NewService(pipeline.ServiceParams{
		Logger:      logg,
		Metrics:     pipelineMetrics,
		Fetcher:     fetcher,
		Store:       gcsClient,
		Descriptors: sources.DefaultRegistry(cfg.Aggregation.SnapshotBaseURL),
		Lock:        lock,
		Aggregation: cfg.Aggregation,
		Flags:       cfg.FeatureFlags,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pipeline service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Aggregation.RunInterval.String(),
	})
	logg.Info(ctx, "starting aggregation worker")

	runOnce(ctx, logg, service)

	ticker := time.NewTicker(cfg.Aggregation.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logg.Info(ctx, "aggregation worker shutting down gracefully")
			return
		case <-ticker.C:
			runOnce(ctx, logg, service)
		}
	}
}

func runOnce(ctx context.Context, logg *logger.Logger, service *pipeline.Service) {
	_, err := service.Run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
		// Another instance holds the run lock; the next tick will retry.
		return
	}
	logg.Error(ctx, "aggregation run failed", err)
}
