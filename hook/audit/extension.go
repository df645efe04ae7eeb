package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/henriquealbert/foreman/hook"
)

// Compile-time interface checks.
var (
	_ hook.Extension          = (*Extension)(nil)
	_ hook.WorkerRegistered   = (*Extension)(nil)
	_ hook.ScheduleRegistered = (*Extension)(nil)
	_ hook.FileSkipped        = (*Extension)(nil)
	_ hook.DiscoveryCompleted = (*Extension)(nil)
	_ hook.JobDispatched      = (*Extension)(nil)
)

// Recorder is the interface audit backends must implement. It is defined
// locally so this package carries no dependency on any particular audit
// store — callers inject the concrete backend at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is one audit trail entry.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Extension bridges foreman lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the
// [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit" }

// OnWorkerRegistered implements hook.WorkerRegistered.
func (e *Extension) OnWorkerRegistered(ctx context.Context, jobName, sourcePath string) error {
	return e.record(ctx, ActionWorkerRegistered, SeverityInfo,
		ResourceWorker, jobName, CategoryRegistry,
		"source_path", sourcePath,
	)
}

// OnScheduleRegistered implements hook.ScheduleRegistered.
func (e *Extension) OnScheduleRegistered(ctx context.Context, jobName, schedule string) error {
	return e.record(ctx, ActionScheduleRegistered, SeverityInfo,
		ResourceSchedule, jobName, CategoryRegistry,
		"schedule", schedule,
	)
}

// OnFileSkipped implements hook.FileSkipped.
func (e *Extension) OnFileSkipped(ctx context.Context, path, reason string) error {
	return e.record(ctx, ActionFileSkipped, SeverityWarning,
		ResourceFile, path, CategoryDiscovery,
		"reason", reason,
	)
}

// OnDiscoveryCompleted implements hook.DiscoveryCompleted.
func (e *Extension) OnDiscoveryCompleted(ctx context.Context, jobs, crons int, elapsed time.Duration) error {
	return e.record(ctx, ActionDiscoveryCompleted, SeverityInfo,
		ResourcePass, "", CategoryDiscovery,
		"jobs", jobs,
		"crons", crons,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnJobDispatched implements hook.JobDispatched.
func (e *Extension) OnJobDispatched(ctx context.Context, jobName, jobID string) error {
	return e.record(ctx, ActionJobDispatched, SeverityInfo,
		ResourceJob, jobID, CategoryClient,
		"job_name", jobName,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &Event{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
