// Package lock provides advisory cross-process file locking via
// flock(2). The dataset and each change-log section keep a lock file
// next to their data so a live editor server and a batch job mutating
// the same files never interleave a read-modify-write.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileLock is a held exclusive lock. Release it exactly once; the lock
// also dies with the process, so a crashed holder never wedges others.
type FileLock struct {
	f *os.File
}

// Acquire takes an exclusive lock on the lock file at path, creating it
// (and its directory) if needed. It blocks until the current holder
// releases.
func Acquire(path string) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Release drops the lock and closes the lock file.
func (l *FileLock) Release() error {
	err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}
