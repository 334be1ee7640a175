// Package filelock provides advisory file locking so that two subdump
// processes never dump into the same destination at once.
package filelock

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Acquire when another process holds the lock.
var ErrLocked = errors.New("destination is locked by another run")

// Lock represents an acquired advisory file lock.
type Lock struct {
	flock *flock.Flock
}

// Acquire creates the file at path if needed and takes an exclusive lock on
// it. The call never blocks: when the lock is already held, Acquire returns
// ErrLocked immediately.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire lock %s: %w", path, ErrLocked)
	}

	return &Lock{flock: fl}, nil
}

// Path returns the path of the lock file.
func (l *Lock) Path() string {
	if l == nil || l.flock == nil {
		return ""
	}
	return l.flock.Path()
}

// Close releases the lock and removes the lock file. Calling Close on a nil
// lock is a no-op.
func (l *Lock) Close() error {
	if l == nil || l.flock == nil {
		return nil
	}

	path := l.flock.Path()
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.flock = nil

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}

	return nil
}
