package hook

import (
	"context"
	"log/slog"
	"time"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type workerRegisteredEntry struct {
	name string
	hook WorkerRegistered
}

type scheduleRegisteredEntry struct {
	name string
	hook ScheduleRegistered
}

type fileSkippedEntry struct {
	name string
	hook FileSkipped
}

type discoveryCompletedEntry struct {
	name string
	hook DiscoveryCompleted
}

type jobDispatchedEntry struct {
	name string
	hook JobDispatched
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// A nil *Registry is valid and emits nothing.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	workerRegistered   []workerRegisteredEntry
	scheduleRegistered []scheduleRegisteredEntry
	fileSkipped        []fileSkippedEntry
	discoveryCompleted []discoveryCompletedEntry
	jobDispatched      []jobDispatchedEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(WorkerRegistered); ok {
		r.workerRegistered = append(r.workerRegistered, workerRegisteredEntry{name, h})
	}
	if h, ok := e.(ScheduleRegistered); ok {
		r.scheduleRegistered = append(r.scheduleRegistered, scheduleRegisteredEntry{name, h})
	}
	if h, ok := e.(FileSkipped); ok {
		r.fileSkipped = append(r.fileSkipped, fileSkippedEntry{name, h})
	}
	if h, ok := e.(DiscoveryCompleted); ok {
		r.discoveryCompleted = append(r.discoveryCompleted, discoveryCompletedEntry{name, h})
	}
	if h, ok := e.(JobDispatched); ok {
		r.jobDispatched = append(r.jobDispatched, jobDispatchedEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension {
	if r == nil {
		return nil
	}
	return r.extensions
}

// EmitWorkerRegistered notifies all extensions that implement
// WorkerRegistered.
func (r *Registry) EmitWorkerRegistered(ctx context.Context, jobName, sourcePath string) {
	if r == nil {
		return
	}
	for _, e := range r.workerRegistered {
		if err := e.hook.OnWorkerRegistered(ctx, jobName, sourcePath); err != nil {
			r.logHookError("OnWorkerRegistered", e.name, err)
		}
	}
}

// EmitScheduleRegistered notifies all extensions that implement
// ScheduleRegistered.
func (r *Registry) EmitScheduleRegistered(ctx context.Context, jobName, schedule string) {
	if r == nil {
		return
	}
	for _, e := range r.scheduleRegistered {
		if err := e.hook.OnScheduleRegistered(ctx, jobName, schedule); err != nil {
			r.logHookError("OnScheduleRegistered", e.name, err)
		}
	}
}

// EmitFileSkipped notifies all extensions that implement FileSkipped.
func (r *Registry) EmitFileSkipped(ctx context.Context, path, reason string) {
	if r == nil {
		return
	}
	for _, e := range r.fileSkipped {
		if err := e.hook.OnFileSkipped(ctx, path, reason); err != nil {
			r.logHookError("OnFileSkipped", e.name, err)
		}
	}
}

// EmitDiscoveryCompleted notifies all extensions that implement
// DiscoveryCompleted.
func (r *Registry) EmitDiscoveryCompleted(ctx context.Context, jobs, crons int, elapsed time.Duration) {
	if r == nil {
		return
	}
	for _, e := range r.discoveryCompleted {
		if err := e.hook.OnDiscoveryCompleted(ctx, jobs, crons, elapsed); err != nil {
			r.logHookError("OnDiscoveryCompleted", e.name, err)
		}
	}
}

// EmitJobDispatched notifies all extensions that implement JobDispatched.
func (r *Registry) EmitJobDispatched(ctx context.Context, jobName, jobID string) {
	if r == nil {
		return
	}
	for _, e := range r.jobDispatched {
		if err := e.hook.OnJobDispatched(ctx, jobName, jobID); err != nil {
			r.logHookError("OnJobDispatched", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never interrupt the
// operation that emitted the event.
func (r *Registry) logHookError(hookName, extName string, err error) {
	r.logger.Error("extension hook error",
		slog.String("hook", hookName),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
