package memory_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/henriquealbert/foreman/engine"
	"github.com/henriquealbert/foreman/engine/memory"
	"github.com/henriquealbert/foreman/queue"
)

// collector gathers delivered jobs and signals each delivery.
type collector struct {
	mu     sync.Mutex
	jobs   []*engine.Job
	queues []string
	ch     chan struct{}
	err    error
}

func newCollector() *collector {
	return &collector{ch: make(chan struct{}, 64)}
}

func (c *collector) handler() engine.WorkHandler {
	return func(ctx context.Context, jobs []*engine.Job) error {
		c.mu.Lock()
		c.jobs = append(c.jobs, jobs...)
		err := c.err
		c.mu.Unlock()
		for range jobs {
			c.ch <- struct{}{}
		}
		return err
	}
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func (c *collector) delivered() []*engine.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*engine.Job(nil), c.jobs...)
}

func startEngine(t *testing.T, opts ...memory.Option) *memory.Engine {
	t.Helper()
	opts = append([]memory.Option{memory.WithPollInterval(5 * time.Millisecond)}, opts...)
	e := memory.New(opts...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop(context.Background()) })
	return e
}

func TestSendAndWork(t *testing.T) {
	e := startEngine(t)
	ctx := context.Background()
	c := newCollector()

	if err := e.Work(ctx, "send-email", nil, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}

	id, err := e.Send(ctx, "send-email", []byte(`{"to":"a@b.c"}`), nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(id, "job_") {
		t.Errorf("id = %q, want job_ prefix", id)
	}

	c.wait(t, 1)
	got := c.delivered()
	if len(got) != 1 {
		t.Fatalf("delivered = %d", len(got))
	}
	if got[0].ID != id || got[0].Name != "send-email" {
		t.Errorf("job = %+v", got[0])
	}
	if string(got[0].Data) != `{"to":"a@b.c"}` {
		t.Errorf("data = %s", got[0].Data)
	}
	if e.Pending("send-email") != 0 {
		t.Errorf("pending = %d after delivery", e.Pending("send-email"))
	}
}

func TestSend_DistinctIDs(t *testing.T) {
	e := memory.New()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id, err := e.Send(ctx, "dedupe", nil, nil)
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSend_StartAfterDelays(t *testing.T) {
	e := startEngine(t)
	ctx := context.Background()
	c := newCollector()

	if err := e.Work(ctx, "delayed", nil, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}

	if _, err := e.Send(ctx, "delayed", nil, engine.Options{
		"startAfter": time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if len(c.delivered()) != 0 {
		t.Errorf("job delivered before startAfter")
	}
	if e.Pending("delayed") != 1 {
		t.Errorf("pending = %d, want 1", e.Pending("delayed"))
	}
}

func TestWork_BatchSize(t *testing.T) {
	e := memory.New(memory.WithPollInterval(5 * time.Millisecond))
	ctx := context.Background()

	var mu sync.Mutex
	var sizes []int
	done := make(chan struct{}, 16)
	handler := func(ctx context.Context, jobs []*engine.Job) error {
		mu.Lock()
		sizes = append(sizes, len(jobs))
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	if err := e.Work(ctx, "bulk", engine.Options{"batchSize": 3}, handler); err != nil {
		t.Fatalf("Work: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := e.Send(ctx, "bulk", nil, nil); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for batch")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != 1 || sizes[0] != 3 {
		t.Fatalf("batch sizes = %v, want one batch of 3", sizes)
	}
}

func TestSchedule_Fires(t *testing.T) {
	e := startEngine(t)
	ctx := context.Background()
	c := newCollector()

	if err := e.Work(ctx, "heartbeat", nil, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if err := e.Schedule(ctx, "heartbeat", "@every 10ms", []byte(`{"beat":true}`), nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	c.wait(t, 2)
	got := c.delivered()
	if len(got) < 2 {
		t.Fatalf("delivered = %d, want at least 2 firings", len(got))
	}
	if string(got[0].Data) != `{"beat":true}` {
		t.Errorf("data = %s", got[0].Data)
	}
	if got[0].ID == got[1].ID {
		t.Errorf("each firing must mint a fresh id")
	}
}

func TestSchedule_InvalidExpression(t *testing.T) {
	e := memory.New()
	err := e.Schedule(context.Background(), "broken", "not a cron", nil, nil)
	if err == nil {
		t.Fatalf("expected parse failure")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error must name the job: %v", err)
	}
}

func TestSchedule_ReplaceAndInspect(t *testing.T) {
	e := memory.New()
	ctx := context.Background()

	if err := e.Schedule(ctx, "nightly", "0 3 * * *", nil, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if expr, ok := e.Scheduled("nightly"); !ok || expr != "0 3 * * *" {
		t.Fatalf("Scheduled = %q, %v", expr, ok)
	}

	if err := e.Schedule(ctx, "nightly", "0 4 * * *", nil, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if expr, _ := e.Scheduled("nightly"); expr != "0 4 * * *" {
		t.Errorf("replacement not applied, expr = %q", expr)
	}
}

func TestUnschedule(t *testing.T) {
	e := memory.New()
	ctx := context.Background()

	if err := e.Schedule(ctx, "nightly", "0 3 * * *", nil, nil); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Unschedule(ctx, "nightly"); err != nil {
		t.Fatalf("Unschedule: %v", err)
	}
	if _, ok := e.Scheduled("nightly"); ok {
		t.Errorf("schedule still installed")
	}

	// Unknown names are a no-op.
	if err := e.Unschedule(ctx, "never-existed"); err != nil {
		t.Errorf("Unschedule unknown: %v", err)
	}
}

func TestHandlerErrorIsTerminal(t *testing.T) {
	e := startEngine(t)
	ctx := context.Background()
	c := newCollector()
	c.err = context.DeadlineExceeded // any non-nil error

	if err := e.Work(ctx, "flaky", nil, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if _, err := e.Send(ctx, "flaky", nil, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	c.wait(t, 1)
	time.Sleep(30 * time.Millisecond)
	if got := len(c.delivered()); got != 1 {
		t.Errorf("failed job redelivered %d times, want exactly 1 delivery", got)
	}
}

func TestQueueRateLimitRequeues(t *testing.T) {
	// One token, refilled far slower than the test runs: the first
	// delivery drains the bucket and the second job must be requeued.
	e := startEngine(t, memory.WithQueueConfig(queue.Config{
		Name:      "throttled",
		RateLimit: 0.001,
		RateBurst: 1,
	}))
	ctx := context.Background()
	c := newCollector()

	opts := engine.Options{"queue": "throttled"}
	if err := e.Work(ctx, "drip", opts, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}

	if _, err := e.Send(ctx, "drip", nil, opts); err != nil {
		t.Fatalf("Send: %v", err)
	}
	c.wait(t, 1)

	if _, err := e.Send(ctx, "drip", nil, opts); err != nil {
		t.Fatalf("Send: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if got := len(c.delivered()); got != 1 {
		t.Errorf("delivered = %d, want exactly 1 past the rate limit", got)
	}
	if e.Pending("drip") != 1 {
		t.Errorf("pending = %d, want the throttled job requeued", e.Pending("drip"))
	}
}

func TestQueueLimit_FollowsSendQueue(t *testing.T) {
	// The worker is registered without a queue option, but the jobs are
	// sent to a capped queue: the cap must apply to the queue the jobs
	// were sent to, not the worker's.
	e := startEngine(t, memory.WithQueueConfig(queue.Config{
		Name:      "capped",
		RateLimit: 0.001,
		RateBurst: 1,
	}))
	ctx := context.Background()
	c := newCollector()

	if err := e.Work(ctx, "export", nil, c.handler()); err != nil {
		t.Fatalf("Work: %v", err)
	}

	sendOpts := engine.Options{"queue": "capped"}
	if _, err := e.Send(ctx, "export", nil, sendOpts); err != nil {
		t.Fatalf("Send: %v", err)
	}
	c.wait(t, 1)

	if _, err := e.Send(ctx, "export", nil, sendOpts); err != nil {
		t.Fatalf("Send: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if got := len(c.delivered()); got != 1 {
		t.Errorf("delivered = %d, want the second job held by its send queue's cap", got)
	}
	if e.Pending("export") != 1 {
		t.Errorf("pending = %d, want the capped job requeued", e.Pending("export"))
	}
}

func TestStartStopIdempotent(t *testing.T) {
	e := memory.New(memory.WithPollInterval(5 * time.Millisecond))
	ctx := context.Background()

	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := e.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
