// Package runlock keeps two check runs from writing the same verdict
// database at once.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process holds the lock.
var ErrHeld = errors.New("another audiocheck run is already using this database")

// Lock is an acquired run lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock: %s)", ErrHeld, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
