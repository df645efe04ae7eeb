// Package middleware provides composable middleware for handler execution.
//
// A [Middleware] is a function that wraps a handler invocation. Middleware
// are composed into a chain using [Chain] and applied around every job the
// registrar's worker callback processes. They are applied right-to-left:
// the first middleware in the slice is the outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs job name, id, duration, and outcome at each execution
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the handler context after a configured duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-job duration and outcome counters
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting. Errors returned from the chain propagate to the queue
// engine untouched, so its own retry and dead-letter policy applies.
package middleware

import (
	"context"

	"github.com/henriquealbert/foreman/engine"
)

// Handler is the terminal function that executes handler logic for one
// delivered job.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the job being executed, and the next handler to call.
type Middleware func(ctx context.Context, j *engine.Job, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *engine.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, j, prev)
			}
		}
		return h(ctx)
	}
}
