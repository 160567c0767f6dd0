package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soletrack/soletrack-backend/api/routes"
	"github.com/soletrack/soletrack-backend/internal/pipeline"
	"github.com/soletrack/soletrack-backend/internal/sources"
	"github.com/soletrack/soletrack-backend/pkg/config"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/metrics"
	"github.com/soletrack/soletrack-backend/pkg/redis"
	"github.com/soletrack/soletrack-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, redisClient, gcsClient, gcsClient, service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
