// Package hook defines the extension system for foreman. Extensions are
// notified of lifecycle events (worker registered, schedule installed,
// file skipped, discovery completed, job dispatched) and can react to
// them — logging, metrics, audit trails, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// WorkerRegistered is called after a worker callback is installed with the
// engine for a job name.
type WorkerRegistered interface {
	OnWorkerRegistered(ctx context.Context, jobName, sourcePath string) error
}

// ScheduleRegistered is called after a cron schedule is installed with the
// engine.
type ScheduleRegistered interface {
	OnScheduleRegistered(ctx context.Context, jobName, schedule string) error
}

// FileSkipped is called when a candidate file yields no usable descriptor
// and discovery moves on.
type FileSkipped interface {
	OnFileSkipped(ctx context.Context, path, reason string) error
}

// DiscoveryCompleted is called once a discovery pass reaches the Complete
// state.
type DiscoveryCompleted interface {
	OnDiscoveryCompleted(ctx context.Context, jobs, crons int, elapsed time.Duration) error
}

// JobDispatched is called after the client successfully submits a job to
// the engine.
type JobDispatched interface {
	OnJobDispatched(ctx context.Context, jobName, jobID string) error
}
