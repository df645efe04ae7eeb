package client

import (
	"time"

	"github.com/henriquealbert/foreman/engine"
)

// SendOption mutates the options bag forwarded to the engine's send
// primitive. Keys are engine-defined and pass through verbatim.
type SendOption func(engine.Options)

// WithQueue routes the job to a specific queue, overriding the
// descriptor's own queue.
func WithQueue(queue string) SendOption {
	return func(o engine.Options) { o["queue"] = queue }
}

// WithStartAfter delays execution until the given time.
func WithStartAfter(t time.Time) SendOption {
	return func(o engine.Options) { o["startAfter"] = t }
}

// WithSingletonKey asks the engine to admit at most one active job with
// the same name and key.
func WithSingletonKey(key string) SendOption {
	return func(o engine.Options) { o["singletonKey"] = key }
}

// WithOptions merges arbitrary engine options on top of whatever has been
// set so far.
func WithOptions(opts engine.Options) SendOption {
	return func(o engine.Options) { o.Merge(opts) }
}
