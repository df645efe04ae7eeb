// Package audit is a foreman extension that bridges lifecycle events to
// an audit trail backend.
//
// Every registration, discovery, and dispatch hook emits a structured
// audit event through the [Recorder] interface. The extension assigns a
// severity per action (info for normal operations, warning for skipped
// files) and metadata such as job name, source path, and schedule.
//
//	reg := hook.NewRegistry(logger)
//	reg.Register(audit.New(audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	    return trail.Write(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	})))
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionWorkerRegistered,
//	        audit.ActionJobDispatched,
//	    ),
//	)
package audit
