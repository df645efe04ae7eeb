package hook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/henriquealbert/foreman/hook"
)

// recorder implements every hook and records what it saw.
type recorder struct {
	name string
	err  error

	workers    []string
	schedules  []string
	skipped    []string
	dispatched []string
	completed  int
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnWorkerRegistered(ctx context.Context, jobName, sourcePath string) error {
	r.workers = append(r.workers, jobName)
	return r.err
}

func (r *recorder) OnScheduleRegistered(ctx context.Context, jobName, schedule string) error {
	r.schedules = append(r.schedules, jobName+" "+schedule)
	return r.err
}

func (r *recorder) OnFileSkipped(ctx context.Context, path, reason string) error {
	r.skipped = append(r.skipped, path)
	return r.err
}

func (r *recorder) OnDiscoveryCompleted(ctx context.Context, jobs, crons int, elapsed time.Duration) error {
	r.completed++
	return r.err
}

func (r *recorder) OnJobDispatched(ctx context.Context, jobName, jobID string) error {
	r.dispatched = append(r.dispatched, jobName+"/"+jobID)
	return r.err
}

// dispatchOnly implements a single hook.
type dispatchOnly struct {
	dispatched []string
}

func (d *dispatchOnly) Name() string { return "dispatch-only" }

func (d *dispatchOnly) OnJobDispatched(ctx context.Context, jobName, jobID string) error {
	d.dispatched = append(d.dispatched, jobName)
	return nil
}

func newRegistry() *hook.Registry {
	return hook.NewRegistry(slog.New(slog.DiscardHandler))
}

func TestRegistry_EmitsToAllHooks(t *testing.T) {
	reg := newRegistry()
	rec := &recorder{name: "audit"}
	reg.Register(rec)
	ctx := context.Background()

	reg.EmitWorkerRegistered(ctx, "send-email", "app/jobs/send_email_job.go")
	reg.EmitScheduleRegistered(ctx, "nightly", "0 3 * * *")
	reg.EmitFileSkipped(ctx, "app/jobs/helpers.go", "no descriptor registered")
	reg.EmitDiscoveryCompleted(ctx, 3, 1, time.Second)
	reg.EmitJobDispatched(ctx, "send-email", "job_01h4")

	if len(rec.workers) != 1 || rec.workers[0] != "send-email" {
		t.Errorf("workers = %v", rec.workers)
	}
	if len(rec.schedules) != 1 || rec.schedules[0] != "nightly 0 3 * * *" {
		t.Errorf("schedules = %v", rec.schedules)
	}
	if len(rec.skipped) != 1 || rec.skipped[0] != "app/jobs/helpers.go" {
		t.Errorf("skipped = %v", rec.skipped)
	}
	if rec.completed != 1 {
		t.Errorf("completed = %d", rec.completed)
	}
	if len(rec.dispatched) != 1 || rec.dispatched[0] != "send-email/job_01h4" {
		t.Errorf("dispatched = %v", rec.dispatched)
	}
}

func TestRegistry_PartialExtension(t *testing.T) {
	reg := newRegistry()
	d := &dispatchOnly{}
	reg.Register(d)
	ctx := context.Background()

	// Events for hooks the extension does not implement are no-ops.
	reg.EmitWorkerRegistered(ctx, "send-email", "a_job.go")
	reg.EmitDiscoveryCompleted(ctx, 1, 0, time.Millisecond)
	reg.EmitJobDispatched(ctx, "send-email", "job_01h4")

	if len(d.dispatched) != 1 {
		t.Fatalf("dispatched = %v", d.dispatched)
	}
}

func TestRegistry_AllExtensionsNotified(t *testing.T) {
	reg := newRegistry()
	first := &recorder{name: "first"}
	second := &recorder{name: "second"}
	reg.Register(first)
	reg.Register(second)

	reg.EmitWorkerRegistered(context.Background(), "ordered", "ordered_job.go")
	if len(first.workers) != 1 || len(second.workers) != 1 {
		t.Fatalf("both extensions must be notified")
	}
}

func TestRegistry_HookErrorDoesNotStopOthers(t *testing.T) {
	reg := newRegistry()
	failing := &recorder{name: "failing", err: errors.New("hook broke")}
	healthy := &recorder{name: "healthy"}
	reg.Register(failing)
	reg.Register(healthy)

	reg.EmitJobDispatched(context.Background(), "send-email", "job_01h4")

	if len(healthy.dispatched) != 1 {
		t.Fatalf("a failing hook must not block later extensions")
	}
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var reg *hook.Registry
	ctx := context.Background()

	// All emits on a nil registry are no-ops.
	reg.EmitWorkerRegistered(ctx, "x", "x_job.go")
	reg.EmitScheduleRegistered(ctx, "x", "* * * * *")
	reg.EmitFileSkipped(ctx, "x.go", "reason")
	reg.EmitDiscoveryCompleted(ctx, 0, 0, 0)
	reg.EmitJobDispatched(ctx, "x", "id")

	if got := reg.Extensions(); got != nil {
		t.Errorf("Extensions on nil registry = %v", got)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	reg := newRegistry()
	reg.Register(&recorder{name: "a"})
	reg.Register(&dispatchOnly{})

	exts := reg.Extensions()
	if len(exts) != 2 {
		t.Fatalf("extensions = %d", len(exts))
	}
	if exts[0].Name() != "a" || exts[1].Name() != "dispatch-only" {
		t.Errorf("names = %q, %q", exts[0].Name(), exts[1].Name())
	}
}
