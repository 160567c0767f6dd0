package controllers

import (
	"context"
	"net/http"

	"github.com/soletrack/soletrack-backend/api/responses"
	"github.com/soletrack/soletrack-backend/pkg/config"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
)

// Pinger is the dependency surface readiness checks on.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SoleTrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the dependencies a run needs before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SoleTrack-Env", cfg.App.Env)
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
