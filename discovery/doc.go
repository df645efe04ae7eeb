// Package discovery performs the scan → import → extract → validate →
// register pipeline that wires handler files to the queue engine at boot.
//
// A Discovery pass walks the configured jobs and cron directories for files
// matching the suffix conventions (send_email_job.go, daily_cleanup_cron.go),
// resolves each file to its registered descriptor, extracts and validates
// its configuration, and installs workers and schedules through a Registrar.
//
// A file with no registered descriptor is a deliberate skip — directories
// may contain helper files. A broken registration is a hard failure:
// silently skipping a job is worse than a crashed boot, so the first such
// error stops the pass and propagates to the caller. Handlers registered
// before the failure stay registered; there is no rollback.
package discovery
