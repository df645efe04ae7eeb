package middleware

import (
	"context"
	"time"

	"github.com/henriquealbert/foreman/engine"
)

// Timeout returns middleware that enforces a per-job execution deadline.
// When the deadline is exceeded the context is cancelled and the handler
// should return context.DeadlineExceeded. A non-positive duration disables
// the middleware.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *engine.Job, next Handler) error {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
