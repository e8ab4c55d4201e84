// Package lock serializes work on a single key, such as one meeting's
// attendance register, within a process and across worker replicas.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the context ends before the lock is taken.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives the lock back. Calling it more than once is harmless.
type Release func()

// Locker acquires exclusive, per-key locks.
type Locker interface {
	Lock(ctx context.Context, key string) (Release, error)
}

// Layered takes the local lock first and then the remote one, so goroutines
// of one process queue up locally instead of polling the remote store.
type Layered struct {
	local  Locker
	remote Locker
}

// NewLayered combines a process-local and a distributed locker.
func NewLayered(local, remote Locker) *Layered {
	return &Layered{local: local, remote: remote}
}

// Lock acquires both layers.
func (l *Layered) Lock(ctx context.Context, key string) (Release, error) {
	releaseLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	releaseRemote, err := l.remote.Lock(ctx, key)
	if err != nil {
		releaseLocal()
		return nil, err
	}
	return func() {
		releaseRemote()
		releaseLocal()
	}, nil
}
