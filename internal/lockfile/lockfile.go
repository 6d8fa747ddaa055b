package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
)

// Lock wraps an advisory file lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a lock handle for path. Nothing is acquired until TryAcquire.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts the lock without blocking. A false return means
// another process holds it.
func (l *Lock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", l.path, err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %q: %w", l.path, err)
	}
	return nil
}

// WritePID records the current process ID at path.
func WritePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write pid file %q: %w", path, err)
	}
	return nil
}

// ReadPID returns the process ID recorded at path, or 0 when the file is
// absent.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid file %q: %q", path, value)
	}
	return pid, nil
}

// RemovePID deletes the record. Missing files are not an error.
func RemovePID(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file %q: %w", path, err)
	}
	return nil
}

// Alive reports whether a process with the given PID exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, syscall.EPERM)
}

// ReclaimStale removes the PID record when its process is gone. Returns the
// stale PID when a record was reclaimed.
func ReclaimStale(path string) (int, bool, error) {
	pid, err := ReadPID(path)
	if err != nil {
		// A malformed record is itself stale.
		if removeErr := RemovePID(path); removeErr != nil {
			return 0, false, removeErr
		}
		return 0, true, nil
	}
	if pid == 0 {
		return 0, false, nil
	}
	if Alive(pid) {
		return pid, false, nil
	}
	if err := RemovePID(path); err != nil {
		return pid, false, err
	}
	return pid, true, nil
}
