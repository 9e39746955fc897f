package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BuildLock serializes index rebuilds across processes. Two concurrent
// builds writing the same index directory would interleave the graph file
// and its sidecar; the lock makes the second builder fail fast instead.
type BuildLock struct {
	flock  *flock.Flock
	locked bool
}

// NewBuildLock creates a lock for the given index directory. The lock file
// is created at <dir>/.build.lock.
func NewBuildLock(dir string) *BuildLock {
	return &BuildLock{flock: flock.New(filepath.Join(dir, ".build.lock"))}
}

// TryLock attempts to acquire the lock without blocking. Returns false when
// another process is already building.
func (l *BuildLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire build lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *BuildLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	return l.flock.Unlock()
}
