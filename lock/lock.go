// Package lock provides overlap prevention for scheduled jobs. When the
// underlying queue engine has no native singleton option, the registrar can
// wrap cron executions in a Locker so a firing is skipped while a previous
// run still holds the lock.
package lock

import (
	"context"
	"sync"
)

// Locker guards a named critical section. TryAcquire returns false without
// blocking when the key is already held; the returned release function must
// be called when the holder finishes.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// Memory is an in-process Locker. It only prevents overlap between
// goroutines sharing the same instance; use the postgres subpackage for
// cross-process guarantees.
type Memory struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemory creates an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]bool)}
}

// TryAcquire acquires the key if it is free.
func (m *Memory) TryAcquire(_ context.Context, key string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held[key] {
		return nil, false, nil
	}
	m.held[key] = true

	release := func() {
		m.mu.Lock()
		delete(m.held, key)
		m.mu.Unlock()
	}
	return release, true, nil
}
