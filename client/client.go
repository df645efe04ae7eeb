// Package client submits work to the queue engine. The Dispatcher resolves
// a job name from a handler descriptor and forwards the payload to the
// engine's send primitive — it is independent of discovery, so a job can be
// dispatched as long as a worker is registered somewhere.
//
// Usage:
//
//	d := client.New(eng)
//	id, err := d.Dispatch(ctx, sendemail.Descriptor, Payload{To: "a@b.c"},
//	    client.WithQueue("emails"),
//	)
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/henriquealbert/foreman"
	"github.com/henriquealbert/foreman/engine"
	"github.com/henriquealbert/foreman/hook"
	"github.com/henriquealbert/foreman/job"
)

// Dispatcher enqueues jobs with the engine. It performs no retries of its
// own: engine errors propagate to the caller, and retry or backoff policy
// is configured through options passed straight to the engine.
type Dispatcher struct {
	engine engine.Engine
	hooks  *hook.Registry
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithHooks sets the lifecycle hook registry.
func WithHooks(h *hook.Registry) Option {
	return func(d *Dispatcher) { d.hooks = h }
}

// New creates a Dispatcher on the given engine.
func New(eng engine.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine: eng,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch enqueues one job for the handler described by desc. The job
// name is resolved exactly as registration resolves it, the payload is
// JSON-marshalled, and the returned identifier is whatever the engine
// assigned — opaque to this layer, useful for logging and correlation.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *job.Descriptor, payload any, opts ...SendOption) (string, error) {
	if d.engine == nil {
		return "", foreman.ErrNoEngine
	}

	name := job.ResolveName(desc)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("foreman/client: marshal payload for job %q: %w", name, err)
	}

	sendOpts := engine.Options{}
	if desc.Queue != "" {
		sendOpts["queue"] = desc.Queue
	}
	for _, opt := range opts {
		opt(sendOpts)
	}

	id, err := d.engine.Send(ctx, name, data, sendOpts)
	if err != nil {
		return "", fmt.Errorf("foreman/client: dispatch job %q: %w", name, err)
	}

	d.logger.Info("job dispatched",
		slog.String("job_name", name),
		slog.String("job_id", id),
	)
	d.hooks.EmitJobDispatched(ctx, name, id)
	return id, nil
}
