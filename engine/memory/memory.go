// Package memory is a non-durable, in-process implementation of the
// engine contract. Intended for development and tests: jobs live in
// process memory, failed jobs are not retried, and nothing survives a
// restart. Production deployments point foreman at a durable engine
// instead.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.jetify.com/typeid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/henriquealbert/foreman/engine"
	"github.com/henriquealbert/foreman/queue"
)

var _ engine.Engine = (*Engine)(nil)

// cronParser accepts standard 5-field cron syntax plus descriptors like
// "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// item is a pending job with its routing queue and earliest delivery time.
type item struct {
	job   *engine.Job
	queue string
	runAt time.Time
}

// subscription is one installed worker callback.
type subscription struct {
	name      string
	queue     string
	batchSize int
	handler   engine.WorkHandler
}

// schedule is one installed cron entry.
type schedule struct {
	name  string
	expr  string
	sched cronlib.Schedule
	queue string
	data  []byte
	opts  engine.Options
	next  time.Time
}

// Engine is the in-memory queue engine.
type Engine struct {
	mu        sync.Mutex
	pending   map[string][]*item // keyed by job name
	subs      map[string]*subscription
	schedules map[string]*schedule

	limits       *queue.Manager
	pollInterval time.Duration
	logger       *slog.Logger

	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Option configures the memory engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPollInterval sets how often the delivery loop wakes up.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithQueueConfig applies per-queue concurrency and rate limits.
func WithQueueConfig(configs ...queue.Config) Option {
	return func(e *Engine) { e.limits = queue.NewManager(configs...) }
}

// New creates a stopped memory engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		pending:      make(map[string][]*item),
		subs:         make(map[string]*subscription),
		schedules:    make(map[string]*schedule),
		limits:       queue.NewManager(),
		pollInterval: 50 * time.Millisecond,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send enqueues a job. Recognized options: "queue" (string), "startAfter"
// (time.Time). Everything else is ignored — this engine has no retry or
// priority semantics.
func (e *Engine) Send(_ context.Context, name string, data []byte, opts engine.Options) (string, error) {
	tid, err := typeid.Generate("job")
	if err != nil {
		return "", fmt.Errorf("memory: generate job id: %w", err)
	}

	it := &item{
		job:   &engine.Job{ID: tid.String(), Name: name, Data: data},
		queue: optQueue(opts),
		runAt: time.Now(),
	}
	if after, ok := opts["startAfter"].(time.Time); ok {
		it.runAt = after
	}

	e.mu.Lock()
	e.pending[name] = append(e.pending[name], it)
	e.mu.Unlock()

	return it.job.ID, nil
}

// Work installs the worker callback for a job name, replacing any prior
// callback for the same name. Recognized options: "queue" (string),
// "batchSize" (int, default 1).
func (e *Engine) Work(_ context.Context, name string, opts engine.Options, handler engine.WorkHandler) error {
	sub := &subscription{
		name:      name,
		queue:     optQueue(opts),
		batchSize: 1,
		handler:   handler,
	}
	if n, ok := opts["batchSize"].(int); ok && n > 0 {
		sub.batchSize = n
	}

	e.mu.Lock()
	e.subs[name] = sub
	e.mu.Unlock()
	return nil
}

// Schedule installs a cron entry that enqueues the named job on each
// firing. One schedule per job name; a second call replaces the first.
func (e *Engine) Schedule(_ context.Context, name, cronExpr string, data []byte, opts engine.Options) error {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("memory: parse schedule %q for job %q: %w", cronExpr, name, err)
	}

	e.mu.Lock()
	e.schedules[name] = &schedule{
		name:  name,
		expr:  cronExpr,
		sched: sched,
		queue: optQueue(opts),
		data:  data,
		opts:  opts.Clone(),
		next:  sched.Next(time.Now()),
	}
	e.mu.Unlock()
	return nil
}

// Unschedule removes the schedule for a job name, if present.
func (e *Engine) Unschedule(_ context.Context, name string) error {
	e.mu.Lock()
	delete(e.schedules, name)
	e.mu.Unlock()
	return nil
}

// Start launches the delivery and schedule loops.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	g, runCtx := errgroup.WithContext(runCtx)
	e.group = g
	e.mu.Unlock()

	g.Go(func() error { e.loop(runCtx); return nil })

	e.logger.Info("memory engine started",
		slog.Duration("poll_interval", e.pollInterval),
	)
	return nil
}

// Stop halts delivery and waits for in-flight batches to finish.
func (e *Engine) Stop(_ context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	cancel, g := e.cancel, e.group
	e.mu.Unlock()

	cancel()
	_ = g.Wait()
	e.logger.Info("memory engine stopped")
	return nil
}

// loop ticks schedules and delivers pending jobs until the context is
// cancelled.
func (e *Engine) loop(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.fireSchedules()
			e.deliver(ctx)
		}
	}
}

// fireSchedules enqueues a job for every due cron entry and advances its
// next firing time.
func (e *Engine) fireSchedules() {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.schedules {
		if s.next.After(now) {
			continue
		}
		tid, err := typeid.Generate("job")
		if err != nil {
			e.logger.Error("schedule id generation failed",
				slog.String("job_name", s.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.pending[s.name] = append(e.pending[s.name], &item{
			job:   &engine.Job{ID: tid.String(), Name: s.name, Data: s.data},
			queue: s.queue,
			runAt: now,
		})
		s.next = s.sched.Next(now)
	}
}

// deliver hands due jobs to their subscriptions, one batch per queue per
// subscription per tick, honoring per-queue limits. Limits are charged
// against the queue each job was sent to, which may differ from the
// worker's own queue when a send carried an explicit "queue" option.
func (e *Engine) deliver(ctx context.Context) {
	now := time.Now()

	e.mu.Lock()
	type delivery struct {
		sub   *subscription
		items []*item
		queue string
	}
	var deliveries []delivery
	for name, sub := range e.subs {
		due := e.takeDue(name, sub.batchSize, now)
		for len(due) > 0 {
			q := due[0].queue
			var group, rest []*item
			for _, it := range due {
				if it.queue == q {
					group = append(group, it)
				} else {
					rest = append(rest, it)
				}
			}
			deliveries = append(deliveries, delivery{sub: sub, items: group, queue: q})
			due = rest
		}
	}
	e.mu.Unlock()

	for _, d := range deliveries {
		if !e.limits.Acquire(d.queue) {
			// Over the queue's limit: put the group back for a later tick.
			e.requeue(d.sub.name, d.items)
			continue
		}
		batch := make([]*engine.Job, 0, len(d.items))
		for _, it := range d.items {
			batch = append(batch, it.job)
		}
		if err := d.sub.handler(ctx, batch); err != nil {
			// No retry in the memory engine; the failure is terminal.
			e.logger.Error("batch failed",
				slog.String("job_name", d.sub.name),
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()),
			)
		}
		e.limits.Release(d.queue)
	}
}

// takeDue removes and returns up to limit due items for a job name.
// Caller holds e.mu.
func (e *Engine) takeDue(name string, limit int, now time.Time) []*item {
	var due []*item
	var rest []*item
	for _, it := range e.pending[name] {
		if len(due) < limit && !it.runAt.After(now) {
			due = append(due, it)
		} else {
			rest = append(rest, it)
		}
	}
	e.pending[name] = rest
	return due
}

// requeue puts undelivered items back at the front of the pending list,
// keeping each item's own queue.
func (e *Engine) requeue(name string, items []*item) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	for _, it := range items {
		it.runAt = now
	}
	e.pending[name] = append(items, e.pending[name]...)
}

// Pending returns the number of undelivered jobs for a name. Test helper.
func (e *Engine) Pending(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending[name])
}

// Scheduled reports whether a schedule is installed for a name and returns
// its expression.
func (e *Engine) Scheduled(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.schedules[name]
	if !ok {
		return "", false
	}
	return s.expr, true
}

// optQueue reads the "queue" option, defaulting to "default".
func optQueue(opts engine.Options) string {
	if q, ok := opts["queue"].(string); ok && q != "" {
		return q
	}
	return "default"
}
