// Package foreman provides job registration, discovery, and dispatch on top
// of a pluggable PostgreSQL-style queue engine. It derives canonical job
// names from handler descriptors, discovers handlers by directory convention,
// and installs workers and cron schedules with the underlying engine.
//
// Foreman is designed as a library, not a service. Handler packages register
// descriptors at module load, a single discovery pass wires them to the
// engine at boot, and application code dispatches work through a small
// client.
//
// # Quick Start
//
//	eng := memory.New()
//	reg := worker.NewRegistrar(eng)
//	disc := discovery.New(foreman.DefaultSettings(), job.DefaultRegistry(), reg)
//
//	if err := disc.Discover(ctx); err != nil {
//	    // a broken handler file is a broken deployment; fail loud
//	}
//
//	d := client.New(eng)
//	id, err := d.Dispatch(ctx, sendemail.Descriptor, payload)
//
// # Architecture
//
// The durable queue engine itself is an external collaborator described by
// the engine package contract (Send, Work, Schedule, Start, Stop with
// at-least-once delivery). Foreman layers name resolution, configuration
// extraction and validation, filesystem discovery, and worker/schedule
// registration on top of it, and stays out of the engine's retry, backoff,
// and delivery semantics.
package foreman
