package audit

// Audit event actions. Each constant corresponds to one lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionWorkerRegistered   = "registry.worker_registered"
	ActionScheduleRegistered = "registry.schedule_registered"
	ActionFileSkipped        = "discovery.file_skipped"
	ActionDiscoveryCompleted = "discovery.completed"
	ActionJobDispatched      = "client.job_dispatched"
)

// Audit event categories group related actions.
const (
	CategoryRegistry  = "foreman.registry"
	CategoryDiscovery = "foreman.discovery"
	CategoryClient    = "foreman.client"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceWorker   = "worker"
	ResourceSchedule = "schedule"
	ResourceFile     = "file"
	ResourcePass     = "discovery_pass"
	ResourceJob      = "job"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionWorkerRegistered,
		ActionScheduleRegistered,
		ActionFileSkipped,
		ActionDiscoveryCompleted,
		ActionJobDispatched,
	}
}
