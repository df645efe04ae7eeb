package foreman

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEngine is returned when a component is constructed without a queue
// engine.
var ErrNoEngine = errors.New("foreman: no engine configured")

// InvalidDefaultQueueError reports a default queue that is not a member of
// the allowed queue list.
type InvalidDefaultQueueError struct {
	DefaultQueue string
	Queues       []string
}

func (e *InvalidDefaultQueueError) Error() string {
	return fmt.Sprintf("foreman: default queue %q is not in the allowed queue list: %s",
		e.DefaultQueue, strings.Join(e.Queues, ", "))
}

// InvalidQueueError reports a handler whose resolved queue is not a member
// of the allowed queue list. SourcePath names the file that declared the
// handler so an operator can fix it without inspecting internals.
type InvalidQueueError struct {
	Queue      string
	SourcePath string
	Queues     []string
}

func (e *InvalidQueueError) Error() string {
	return fmt.Sprintf("foreman: queue %q in %s is not in the allowed queue list: %s",
		e.Queue, e.SourcePath, strings.Join(e.Queues, ", "))
}

// MissingScheduleError reports a schedulable handler with no cron
// expression. A schedule is the one mandatory field with no default.
type MissingScheduleError struct {
	TypeName string
}

func (e *MissingScheduleError) Error() string {
	return fmt.Sprintf("foreman: cron handler %s has no schedule expression", e.TypeName)
}

// InvalidScheduleError reports a cron expression the schedule parser
// rejected.
type InvalidScheduleError struct {
	JobName  string
	Schedule string
	Err      error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("foreman: cron job %q has invalid schedule %q: %v",
		e.JobName, e.Schedule, e.Err)
}

func (e *InvalidScheduleError) Unwrap() error { return e.Err }

// ImportError wraps a failure to load a handler definition from a candidate
// file. A broken handler file indicates a broken deployment, so discovery
// propagates it rather than skipping.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("foreman: import %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// DuplicateJobError reports two distinct handlers resolving to the same job
// name. Last-registration-wins at the engine level would silently drop one
// handler, so this layer refuses instead.
type DuplicateJobError struct {
	JobName    string
	SourcePath string
	PriorPath  string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("foreman: job name %q from %s is already registered by %s",
		e.JobName, e.SourcePath, e.PriorPath)
}
