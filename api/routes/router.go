package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soletrack/soletrack-backend/api/controllers"
	"github.com/soletrack/soletrack-backend/api/middleware"
	"github.com/soletrack/soletrack-backend/pkg/config"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/redis"
	"github.com/soletrack/soletrack-backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	artifacts controllers.ArtifactReader,
	runner controllers.Runner,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var deps []controllers.Pinger
	var limiter middleware.RateLimiter
	if redisClient != nil {
		deps = append(deps, redisClient)
		limiter = redisClient
	}
	if gcsClient != nil {
		deps = append(deps, gcsClient)
	}

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(logg, limiter, "aggregation_trigger", cfg.App.TriggerRateLimit, cfg.App.TriggerRateWindow)).
			Post("/aggregation/run", controllers.TriggerAggregation(logg, runner))

		r.Route("/artifacts", func(r chi.Router) {
			for slug, objectName := range controllers.ArtifactSlugs() {
				r.Get("/"+slug, controllers.Artifact(logg, artifacts, objectName))
			}
		})
	})

	return r
}
