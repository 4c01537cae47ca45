package library

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the library lock.
var ErrLocked = errors.New("library is locked by another process")

// Lock holds the advisory lock file of one library directory.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock file name inside root without blocking.
func AcquireLock(root, name string) (*Lock, error) {
	path := filepath.Join(root, name)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{lock: lock}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.lock.Path() }

// Release unlocks. The lock file stays on disk.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
