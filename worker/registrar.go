// Package worker installs worker callbacks and cron schedules with the
// queue engine. The Registrar builds one callback per job name; on each
// delivery it resolves a fresh handler instance through the configured
// Resolver and runs it through the middleware chain, handing any error
// straight back to the engine's retry policy.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/henriquealbert/foreman"
	"github.com/henriquealbert/foreman/engine"
	"github.com/henriquealbert/foreman/hook"
	"github.com/henriquealbert/foreman/job"
	"github.com/henriquealbert/foreman/lock"
	"github.com/henriquealbert/foreman/middleware"
)

// Resolver builds handler instances. It is the dependency-injection seam:
// the default resolver calls the descriptor's own factory, and applications
// with a container can install their own implementation so handlers get
// their dependencies injected.
type Resolver interface {
	Resolve(ctx context.Context, d *job.Descriptor) (any, error)
}

// factoryResolver is the default Resolver: descriptor factories construct
// their own instances.
type factoryResolver struct{}

func (factoryResolver) Resolve(_ context.Context, d *job.Descriptor) (any, error) {
	return d.New()
}

// Registrar wraps the queue engine's Work and Schedule primitives. It
// retains the resolved job names it has installed so a second handler
// resolving to the same name fails instead of silently replacing the first
// at the engine level.
type Registrar struct {
	engine   engine.Engine
	resolver Resolver
	locker   lock.Locker
	hooks    *hook.Registry
	logger   *slog.Logger
	mw       middleware.Middleware

	mu         sync.Mutex
	registered map[string]string // job name → source path
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registrar) { r.logger = l }
}

// WithResolver sets the handler instance resolver.
func WithResolver(res Resolver) Option {
	return func(r *Registrar) { r.resolver = res }
}

// WithMiddleware sets the middleware chain applied around every handler
// invocation. The first middleware is the outermost wrapper.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(r *Registrar) { r.mw = middleware.Chain(mws...) }
}

// WithLocker enables the singleton guard for cron executions: a firing is
// skipped while a previous run of the same job still holds the lock. Use
// this when the engine has no native singleton option.
func WithLocker(l lock.Locker) Option {
	return func(r *Registrar) { r.locker = l }
}

// WithHooks sets the lifecycle hook registry.
func WithHooks(h *hook.Registry) Option {
	return func(r *Registrar) { r.hooks = h }
}

// NewRegistrar creates a Registrar on the given engine.
func NewRegistrar(eng engine.Engine, opts ...Option) *Registrar {
	r := &Registrar{
		engine:     eng,
		resolver:   factoryResolver{},
		logger:     slog.Default(),
		mw:         middleware.Chain(),
		registered: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterWorker installs exactly one worker callback with the engine for
// the config's job name. A name already installed by a different source
// path is a hard error.
func (r *Registrar) RegisterWorker(ctx context.Context, d *job.Descriptor, cfg job.Config, sourcePath string) error {
	if r.engine == nil {
		return foreman.ErrNoEngine
	}

	if err := r.claim(cfg.JobName, sourcePath); err != nil {
		return err
	}

	if err := r.engine.Work(ctx, cfg.JobName, cfg.WorkOptions, r.callback(d)); err != nil {
		r.release(cfg.JobName)
		return fmt.Errorf("foreman/worker: install worker %q: %w", cfg.JobName, err)
	}

	r.logger.Info("worker registered",
		slog.String("job_name", cfg.JobName),
		slog.String("queue", cfg.Queue),
		slog.String("source", sourcePath),
	)
	r.hooks.EmitWorkerRegistered(ctx, cfg.JobName, sourcePath)
	return nil
}

// RegisterSchedule installs a cron schedule with the engine. Overlap
// prevention beyond the singleton guard is whatever the engine's own
// options provide; ScheduleOptions pass through verbatim.
func (r *Registrar) RegisterSchedule(ctx context.Context, cfg job.CronConfig, sourcePath string) error {
	if r.engine == nil {
		return foreman.ErrNoEngine
	}

	if err := r.engine.Schedule(ctx, cfg.JobName, cfg.Schedule, nil, cfg.ScheduleOptions); err != nil {
		return fmt.Errorf("foreman/worker: install schedule %q: %w", cfg.JobName, err)
	}

	r.logger.Info("schedule registered",
		slog.String("job_name", cfg.JobName),
		slog.String("schedule", cfg.Schedule),
		slog.String("source", sourcePath),
	)
	r.hooks.EmitScheduleRegistered(ctx, cfg.JobName, cfg.Schedule)
	return nil
}

// ClearSchedule removes a previously installed schedule, e.g. for a cron
// handler that no longer exists.
func (r *Registrar) ClearSchedule(ctx context.Context, jobName string) error {
	if r.engine == nil {
		return foreman.ErrNoEngine
	}
	return r.engine.Unschedule(ctx, jobName)
}

// Registered returns the source path that installed the given job name.
func (r *Registrar) Registered(jobName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.registered[jobName]
	return path, ok
}

func (r *Registrar) claim(jobName, sourcePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-registering from the same file is idempotent (a retried
	// discovery pass replaces the callback at the engine level). Only a
	// collision between two distinct files is refused.
	if prior, ok := r.registered[jobName]; ok && prior != sourcePath {
		return &foreman.DuplicateJobError{JobName: jobName, SourcePath: sourcePath, PriorPath: prior}
	}
	r.registered[jobName] = sourcePath
	return nil
}

func (r *Registrar) release(jobName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registered, jobName)
}

// callback builds the engine worker callback for a descriptor. Items in a
// delivered batch are processed sequentially; cross-batch concurrency and
// backpressure are entirely the engine's concern.
func (r *Registrar) callback(d *job.Descriptor) engine.WorkHandler {
	return func(ctx context.Context, jobs []*engine.Job) error {
		for _, j := range jobs {
			if err := r.runOne(ctx, d, j); err != nil {
				return err
			}
		}
		return nil
	}
}

// runOne resolves a fresh handler instance and invokes it for a single
// delivered job.
func (r *Registrar) runOne(ctx context.Context, d *job.Descriptor, j *engine.Job) error {
	if d.Kind == job.KindSchedulable && r.locker != nil {
		release, acquired, err := r.locker.TryAcquire(ctx, j.Name)
		if err != nil {
			return fmt.Errorf("foreman/worker: singleton lock %q: %w", j.Name, err)
		}
		if !acquired {
			r.logger.Info("cron execution skipped, previous run still active",
				slog.String("job_name", j.Name),
				slog.String("job_id", j.ID),
			)
			return nil
		}
		defer release()
	}

	instance, err := r.resolver.Resolve(ctx, d)
	if err != nil {
		return fmt.Errorf("foreman/worker: resolve handler for job %q: %w", j.Name, err)
	}

	terminal, err := terminalFor(d.Kind, instance, j)
	if err != nil {
		return err
	}
	return r.mw(ctx, j, terminal)
}

// terminalFor adapts the handler instance to the middleware terminal
// according to the descriptor kind.
func terminalFor(kind job.Kind, instance any, j *engine.Job) (middleware.Handler, error) {
	switch kind {
	case job.KindSchedulable:
		h, ok := instance.(job.CronHandler)
		if !ok {
			return nil, fmt.Errorf("foreman/worker: handler %T for job %q does not implement job.CronHandler", instance, j.Name)
		}
		return func(ctx context.Context) error { return h.Handle(ctx) }, nil
	default:
		h, ok := instance.(job.Handler)
		if !ok {
			return nil, fmt.Errorf("foreman/worker: handler %T for job %q does not implement job.Handler", instance, j.Name)
		}
		return func(ctx context.Context) error { return h.Handle(ctx, j.Data) }, nil
	}
}
