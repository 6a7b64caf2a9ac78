package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryInterval = 50 * time.Millisecond

// lockTimeout bounds how long a writer waits for another process holding the lock.
var lockTimeout = 10 * time.Second

// withWriteLock runs fn while holding the directory's exclusive file lock. SQLite
// serializes single statements on its own; the lock keeps read-plan-write sequences
// (rank planning, full rewrites) from interleaving across processes.
func (s Store) withWriteLock(ctx context.Context, fn func() error) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	lctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fl := flock.New(s.lockPath())
	ok, err := fl.TryLockContext(lctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("acquire store lock: %s is busy", s.lockPath())
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}
