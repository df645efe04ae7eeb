package foreman

import (
	"github.com/caarlos0/env/v11"
)

// Settings holds process-wide configuration for a discovery pass.
// It is loaded once at boot and treated as immutable afterwards.
type Settings struct {
	// JobsPath is the directory scanned for dispatchable job files.
	JobsPath string `env:"FOREMAN_JOBS_PATH"`

	// CronPath is the directory scanned for cron files.
	CronPath string `env:"FOREMAN_CRON_PATH"`

	// Queues is the allowed queue list. Empty means any queue name is
	// accepted. Order is preserved for error messages.
	Queues []string `env:"FOREMAN_QUEUES"`

	// DefaultQueue is used when a handler does not declare its own queue.
	// If Queues is non-empty, DefaultQueue must be one of them.
	DefaultQueue string `env:"FOREMAN_DEFAULT_QUEUE"`
}

// DefaultSettings returns Settings with the conventional directory layout.
func DefaultSettings() Settings {
	return Settings{
		JobsPath: "app/jobs",
		CronPath: "app/cron",
	}
}

// SettingsFromEnv loads Settings from FOREMAN_* environment variables,
// starting from DefaultSettings.
func SettingsFromEnv() (Settings, error) {
	s := DefaultSettings()
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for static misconfiguration. It is called
// once per discovery pass, before any file is scanned, so a bad default
// queue fails fast rather than partway through discovery.
func (s Settings) Validate() error {
	if s.DefaultQueue != "" && len(s.Queues) > 0 && !contains(s.Queues, s.DefaultQueue) {
		return &InvalidDefaultQueueError{DefaultQueue: s.DefaultQueue, Queues: s.Queues}
	}
	return nil
}

// QueueAllowed reports whether the given queue may be used under these
// settings. An empty Queues list accepts any name.
func (s Settings) QueueAllowed(queue string) bool {
	if len(s.Queues) == 0 {
		return true
	}
	return contains(s.Queues, queue)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
