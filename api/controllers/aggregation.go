package controllers

import (
	"context"
	"net/http"

	"github.com/soletrack/soletrack-backend/api/responses"
	"github.com/soletrack/soletrack-backend/internal/pipeline"
	"github.com/soletrack/soletrack-backend/pkg/logger"
)

// Runner triggers one aggregation pass and reports its outcome.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Summary, error)
}

// TriggerAggregation runs the pipeline synchronously and returns the run
// summary: deal counts, per-source outcomes, and freshness rows. A run
// already in flight surfaces as a conflict rather than a second concurrent
// run.
func TriggerAggregation(logg *logger.Logger, runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := runner.Run(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
