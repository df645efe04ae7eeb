package engine

import (
	"context"
	"encoding/json"
)

// Job is a unit of work as delivered by the engine to a worker callback.
type Job struct {
	// ID is the engine-assigned identifier, opaque to this layer.
	ID string

	// Name is the job name the worker was registered under.
	Name string

	// Data is the payload stored at send time, verbatim.
	Data json.RawMessage
}

// Options is an opaque bag of engine options. Keys are engine-defined
// (queue, priority, retry limits, singleton keys, ...) and are passed
// through verbatim; this layer only ever injects the "queue" key.
type Options map[string]any

// Clone returns a shallow copy of the options bag. A nil receiver yields
// an empty, non-nil bag.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge copies src entries over o, overwriting existing keys.
func (o Options) Merge(src Options) {
	for k, v := range src {
		o[k] = v
	}
}

// WorkHandler processes a batch of delivered jobs. The engine decides batch
// sizes and cross-batch concurrency; returning an error hands the whole
// failure back to the engine's own retry and dead-letter policy.
type WorkHandler func(ctx context.Context, jobs []*Job) error

// Engine is the queue-engine contract. Implementations are assumed safe for
// concurrent use by multiple in-process callers sharing one handle.
type Engine interface {
	// Send enqueues a job under the given name and returns the engine's
	// identifier for it.
	Send(ctx context.Context, name string, data []byte, opts Options) (string, error)

	// Work installs the worker callback for the given job name. Installing
	// a second callback for the same name replaces the first.
	Work(ctx context.Context, name string, opts Options, handler WorkHandler) error

	// Schedule installs a cron schedule that enqueues the named job on
	// each firing. Overlap prevention, if any, is governed by engine
	// options passed through in opts.
	Schedule(ctx context.Context, name string, cronExpr string, data []byte, opts Options) error

	// Unschedule removes the schedule for the given job name, if present.
	Unschedule(ctx context.Context, name string) error

	// Start begins delivery to registered workers.
	Start(ctx context.Context) error

	// Stop halts delivery and releases engine resources.
	Stop(ctx context.Context) error
}
