package pool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName lives in the writable cache root so refreshes of the same
// cache take turns, whether they run in this process or another one.
const lockFileName = ".refresh.lock"

// refreshLock serializes cache refreshes across processes.
type refreshLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// newRefreshLock creates a lock rooted in the given cache directory.
func newRefreshLock(dir string) *refreshLock {
	path := filepath.Join(dir, lockFileName)
	return &refreshLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking. It returns false
// when another refresh holds the lock.
func (l *refreshLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire refresh lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call on a lock that was never acquired.
func (l *refreshLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release refresh lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *refreshLock) Path() string {
	return l.path
}

// writableRoot picks the cache root a refresh writes to: the system root
// when this process may write it, the user root otherwise.
func writableRoot(systemRoot, userRoot string) (string, bool) {
	if dirWritable(systemRoot) {
		return systemRoot, true
	}
	if dirWritable(userRoot) {
		return userRoot, true
	}
	return "", false
}

// dirWritable probes by creating the directory and a throwaway file in it.
func dirWritable(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
