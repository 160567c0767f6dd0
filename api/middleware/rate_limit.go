package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/soletrack/soletrack-backend/api/responses"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
)

// RateLimiter is the counting surface behind the fixed-window limit.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit rejects requests beyond limit per window with a 429. A nil
// limiter or non-positive limit disables the check, and a limiter error
// fails open: a Redis outage must not take the endpoint down with it.
func RateLimit(logg *logger.Logger, limiter RateLimiter, scope string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, limit, window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "rate limit check failed, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"scope": scope, "count": count})
				}
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("limit of %d requests per %s exceeded", limit, window)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
