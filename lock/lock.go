// Package lock guards execution passes so that only one runs at a time,
// within a process or across processes sharing a Redis server.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned when the lock is already held.
var ErrHeld = errors.New("lock: already held")

// Locker hands out an exclusive lock. Acquire never blocks waiting for a
// holder: it fails with ErrHeld instead.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process Locker.
type Local struct {
	mu sync.Mutex
}

// NewLocal returns an unlocked in-process lock.
func NewLocal() *Local { return &Local{} }

// Acquire takes the lock if it is free.
func (l *Local) Acquire(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrHeld
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}
