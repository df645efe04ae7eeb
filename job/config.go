package job

import (
	cronlib "github.com/robfig/cron/v3"

	"github.com/henriquealbert/foreman"
	"github.com/henriquealbert/foreman/engine"
)

// Config is the derived, immutable work registration for a dispatchable
// handler. It is constructed by ExtractJobConfig and consumed immediately
// by the registrar; it is never persisted.
type Config struct {
	JobName     string
	Queue       string
	WorkOptions engine.Options
}

// CronConfig is the derived, immutable schedule registration for a
// schedulable handler.
type CronConfig struct {
	JobName         string
	Queue           string
	Schedule        string
	ScheduleOptions engine.Options
}

// cronParser accepts standard 5-field cron syntax plus descriptors like
// "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression with the same parser validation
// uses. Exported for engine implementations.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// resolveQueue applies the queue precedence: descriptor queue, then the
// settings default, then the literal "default". First match wins, no
// merging.
func resolveQueue(d *Descriptor, s foreman.Settings) string {
	if d.Queue != "" {
		return d.Queue
	}
	if s.DefaultQueue != "" {
		return s.DefaultQueue
	}
	return "default"
}

// extractOptions builds the options bag for a registration. A queue the
// descriptor declares itself is seeded under the "queue" key before the
// descriptor's own options merge on top, so an explicit options bag can
// still override the key, while its absence yields a bag that at least
// routes to the declared queue.
func extractOptions(queue string, own engine.Options) engine.Options {
	opts := engine.Options{}
	if queue != "" {
		opts["queue"] = queue
	}
	opts.Merge(own)
	return opts
}

// ExtractJobConfig derives the work registration for a dispatchable
// descriptor. Pure given descriptor and settings.
func ExtractJobConfig(d *Descriptor, s foreman.Settings) Config {
	return Config{
		JobName:     ResolveName(d),
		Queue:       resolveQueue(d, s),
		WorkOptions: extractOptions(d.Queue, d.WorkOptions),
	}
}

// ExtractCronConfig derives the schedule registration for a schedulable
// descriptor. The schedule is the one mandatory field with no default;
// its absence is a configuration error, never a silent fallback.
func ExtractCronConfig(d *Descriptor, s foreman.Settings) (CronConfig, error) {
	if d.Schedule == "" {
		return CronConfig{}, &foreman.MissingScheduleError{TypeName: d.TypeLabel()}
	}
	return CronConfig{
		JobName:         ResolveName(d),
		Queue:           resolveQueue(d, s),
		Schedule:        d.Schedule,
		ScheduleOptions: extractOptions(d.Queue, d.ScheduleOptions),
	}, nil
}

// ValidateJobConfig checks the resolved queue against the allowed list.
// An empty allowed list accepts any queue name.
func ValidateJobConfig(cfg Config, sourcePath string, s foreman.Settings) error {
	return validateQueue(cfg.Queue, sourcePath, s)
}

// ValidateCronConfig checks the resolved queue against the allowed list and
// the schedule expression against the cron parser.
func ValidateCronConfig(cfg CronConfig, sourcePath string, s foreman.Settings) error {
	if err := validateQueue(cfg.Queue, sourcePath, s); err != nil {
		return err
	}
	if _, err := ParseSchedule(cfg.Schedule); err != nil {
		return &foreman.InvalidScheduleError{JobName: cfg.JobName, Schedule: cfg.Schedule, Err: err}
	}
	return nil
}

func validateQueue(queue, sourcePath string, s foreman.Settings) error {
	if !s.QueueAllowed(queue) {
		return &foreman.InvalidQueueError{Queue: queue, SourcePath: sourcePath, Queues: s.Queues}
	}
	return nil
}
