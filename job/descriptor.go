package job

import (
	"context"
	"encoding/json"

	"github.com/henriquealbert/foreman/engine"
)

// Kind discriminates dispatchable handlers from scheduled (cron) handlers.
type Kind string

const (
	// KindDispatchable marks a handler invoked on demand with a payload.
	KindDispatchable Kind = "dispatchable"
	// KindSchedulable marks a handler triggered on a recurring cron
	// schedule, with no payload.
	KindSchedulable Kind = "schedulable"
)

// Handler is the capability a dispatchable handler must provide.
type Handler interface {
	Handle(ctx context.Context, data json.RawMessage) error
}

// CronHandler is the capability a schedulable handler must provide.
type CronHandler interface {
	Handle(ctx context.Context) error
}

// Descriptor describes one handler: its identity, its configuration, and a
// factory that builds a fresh instance. Descriptors are produced at module
// load time and consumed by the registration pass; they are plain values
// with no behavior of their own.
type Descriptor struct {
	// TypeName is the PascalCase handler type name the job name is derived
	// from, e.g. "SendEmailNotificationJob".
	TypeName string

	// JobName, when set, overrides name derivation entirely.
	JobName string

	// Queue routes the handler's jobs to a specific queue. Empty falls
	// back to the settings default, then to "default".
	Queue string

	// WorkOptions are engine work options passed through verbatim.
	WorkOptions engine.Options

	// ScheduleOptions are engine schedule options passed through verbatim.
	ScheduleOptions engine.Options

	// Schedule is the cron expression. Required for KindSchedulable,
	// absent for KindDispatchable.
	Schedule string

	// Kind discriminates how the handler is invoked.
	Kind Kind

	// New builds a fresh handler instance. The instance must implement
	// Handler or CronHandler according to Kind. Dependencies are the
	// factory's concern: close over them, or install a custom Resolver
	// on the registrar to build instances through a container.
	New func() (any, error)
}

// TypeLabel returns the best human-readable identity for error messages:
// the type name when present, otherwise the explicit job name.
func (d *Descriptor) TypeLabel() string {
	if d.TypeName != "" {
		return d.TypeName
	}
	return d.JobName
}
