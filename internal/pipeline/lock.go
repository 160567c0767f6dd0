package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const lockScope = "aggregation_run"

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope string) string
}

// RunLock serializes pipeline runs through Redis. Overlapping runs would
// race the read-merge-write on the rolling log, so the second caller is
// turned away instead.
type RunLock struct {
	store lockStore
	ttl   time.Duration
	owner string
}

func NewRunLock(store lockStore, ttl time.Duration) *RunLock {
	return &RunLock{store: store, ttl: ttl, owner: uuid.NewString()}
}

// Acquire claims the run lock. The TTL backstops crashed runs that never
// release.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	return l.store.SetNX(ctx, l.store.LockKey(lockScope), l.owner, l.ttl)
}

// Release drops the lock if this instance still owns it. A lock taken over
// by another run after TTL expiry is left alone.
func (l *RunLock) Release(ctx context.Context) error {
	key := l.store.LockKey(lockScope)
	current, err := l.store.Get(ctx, key)
	if err != nil || current != l.owner {
		return err
	}
	return l.store.Del(ctx, key)
}
