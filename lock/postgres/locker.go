// Package postgres implements lock.Locker on PostgreSQL advisory locks,
// giving cron overlap prevention across processes sharing one database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henriquealbert/foreman/lock"
)

var _ lock.Locker = (*Locker)(nil)

// Locker acquires session-level advisory locks keyed by hashtext of the
// job name. Each held lock pins one pooled connection until release, since
// advisory locks are bound to the session that took them.
type Locker struct {
	pool *pgxpool.Pool
}

// New creates a Locker on the given pool.
func New(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

// TryAcquire takes pg_try_advisory_lock for the key. It never blocks on a
// held lock; a false return means another session holds it.
func (l *Locker) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("foreman/lock: acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx,
		`SELECT pg_try_advisory_lock(hashtext($1))`, key,
	).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("foreman/lock: try advisory lock %q: %w", key, err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		// Unlock on a fresh context: release must work even after the
		// job's own context is cancelled.
		_, _ = conn.Exec(context.Background(),
			`SELECT pg_advisory_unlock(hashtext($1))`, key)
		conn.Release()
	}
	return release, true, nil
}
