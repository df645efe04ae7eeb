package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/henriquealbert/foreman"
	"github.com/henriquealbert/foreman/hook"
	"github.com/henriquealbert/foreman/job"
)

// State is the phase a discovery pass is in. Failed is terminal for one
// pass; calling Discover again restarts from StateValidating.
type State string

const (
	StateNotStarted   State = "not_started"
	StateValidating   State = "validating"
	StateScanningJobs State = "scanning_jobs"
	StateScanningCron State = "scanning_cron"
	StateComplete     State = "complete"
	StateFailed       State = "failed"
)

// Registrar installs workers and schedules with the queue engine.
// worker.Registrar is the production implementation.
type Registrar interface {
	RegisterWorker(ctx context.Context, d *job.Descriptor, cfg job.Config, sourcePath string) error
	RegisterSchedule(ctx context.Context, cfg job.CronConfig, sourcePath string) error
}

// Discovery orchestrates one full scan → import → extract → validate →
// register pass. Files are processed strictly sequentially so a failure
// always attributes to exactly one path.
type Discovery struct {
	settings  foreman.Settings
	registry  *job.Registry
	registrar Registrar
	scanner   *Scanner
	hooks     *hook.Registry
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	err   error
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discovery) { d.logger = l }
}

// WithHooks sets the lifecycle hook registry.
func WithHooks(h *hook.Registry) Option {
	return func(d *Discovery) { d.hooks = h }
}

// New creates a Discovery over the given settings, descriptor registry,
// and registrar.
func New(settings foreman.Settings, registry *job.Registry, registrar Registrar, opts ...Option) *Discovery {
	d := &Discovery{
		settings:  settings,
		registry:  registry,
		registrar: registrar,
		logger:    slog.Default(),
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scanner = NewScanner(d.logger)
	return d
}

// State returns the phase of the current (or last) discovery pass.
func (d *Discovery) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the error that moved the last pass to StateFailed, if any.
func (d *Discovery) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Discovery) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// fail records the terminal state for this pass and hands the cause back
// unchanged so callers can match on the concrete error type.
func (d *Discovery) fail(err error) error {
	d.mu.Lock()
	d.state = StateFailed
	d.err = err
	d.mu.Unlock()
	return err
}

// Discover runs one full discovery pass: validate settings, register all
// dispatchable job files, then all cron files. The first hard failure
// stops the pass; handlers registered before it stay registered.
func (d *Discovery) Discover(ctx context.Context) error {
	start := time.Now()

	d.setState(StateValidating)
	d.mu.Lock()
	d.err = nil
	d.mu.Unlock()

	// Static misconfiguration fails before any I/O.
	if err := d.settings.Validate(); err != nil {
		d.logger.Error("settings validation failed", slog.String("error", err.Error()))
		return d.fail(err)
	}

	d.setState(StateScanningJobs)
	jobs, err := d.discoverJobs(ctx)
	if err != nil {
		return d.fail(err)
	}

	d.setState(StateScanningCron)
	crons, err := d.discoverCron(ctx)
	if err != nil {
		return d.fail(err)
	}

	d.setState(StateComplete)
	elapsed := time.Since(start)
	d.logger.Info("discovery complete",
		slog.Int("jobs", jobs),
		slog.Int("crons", crons),
		slog.Duration("elapsed", elapsed),
	)
	d.hooks.EmitDiscoveryCompleted(ctx, jobs, crons, elapsed)
	return nil
}

// discoverJobs registers a worker for every dispatchable job file under
// JobsPath, in scan order.
func (d *Discovery) discoverJobs(ctx context.Context) (int, error) {
	paths := d.scanner.Scan(d.settings.JobsPath, JobSuffix)
	d.logger.Info("scanning jobs",
		slog.String("path", d.settings.JobsPath),
		slog.Int("candidates", len(paths)),
	)

	registered := 0
	for _, path := range paths {
		desc, err := Import(d.registry, path)
		if err != nil {
			d.logger.Error("job import failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return registered, err
		}
		if !d.usable(ctx, desc, path, job.KindDispatchable) {
			continue
		}

		cfg := job.ExtractJobConfig(desc, d.settings)
		if err := job.ValidateJobConfig(cfg, path, d.settings); err != nil {
			d.logger.Error("job config invalid",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return registered, err
		}

		if err := d.registrar.RegisterWorker(ctx, desc, cfg, path); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

// discoverCron registers a worker and a schedule for every cron file under
// CronPath, in scan order. The worker comes first so the job executes when
// the engine's schedule fires.
func (d *Discovery) discoverCron(ctx context.Context) (int, error) {
	paths := d.scanner.Scan(d.settings.CronPath, CronSuffix)
	d.logger.Info("scanning cron",
		slog.String("path", d.settings.CronPath),
		slog.Int("candidates", len(paths)),
	)

	registered := 0
	for _, path := range paths {
		desc, err := Import(d.registry, path)
		if err != nil {
			d.logger.Error("cron import failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return registered, err
		}
		if !d.usable(ctx, desc, path, job.KindSchedulable) {
			continue
		}

		cronCfg, err := job.ExtractCronConfig(desc, d.settings)
		if err != nil {
			d.logger.Error("cron config invalid",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return registered, err
		}
		if err := job.ValidateCronConfig(cronCfg, path, d.settings); err != nil {
			d.logger.Error("cron config invalid",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			return registered, err
		}

		workCfg := job.ExtractJobConfig(desc, d.settings)
		if err := d.registrar.RegisterWorker(ctx, desc, workCfg, path); err != nil {
			return registered, err
		}
		if err := d.registrar.RegisterSchedule(ctx, cronCfg, path); err != nil {
			return registered, err
		}
		registered++
	}
	return registered, nil
}

// usable reports whether the imported descriptor should be registered in
// this pass. Nothing registered, or a descriptor of the wrong kind, is a
// deliberate skip, not a failure.
func (d *Discovery) usable(ctx context.Context, desc *job.Descriptor, path string, want job.Kind) bool {
	if desc == nil {
		d.logger.Debug("no descriptor registered, skipping",
			slog.String("path", path),
		)
		d.hooks.EmitFileSkipped(ctx, path, "no descriptor registered")
		return false
	}
	if desc.Kind != want {
		d.logger.Debug("descriptor kind mismatch, skipping",
			slog.String("path", path),
			slog.String("kind", string(desc.Kind)),
		)
		d.hooks.EmitFileSkipped(ctx, path, "descriptor kind mismatch")
		return false
	}
	return true
}
