package fsutil

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/containerd/errdefs"
)

const (
	// StaleLockThreshold is the maximum age of a lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute
)

// ErrLockExists means another invocation holds the target's lock.
var ErrLockExists = fmt.Errorf("lock exists, another patch run may be in progress: %w", errdefs.ErrUnavailable)

// Lock is an exclusive lock for one target file, held for the duration
// of a patch run.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes an exclusive lock for the target file by creating
// <target>.lock with O_CREATE|O_EXCL. A lock older than
// StaleLockThreshold is treated as left over from a crashed run,
// removed, and retried once.
func AcquireLock(target string) (*Lock, error) {
	lockPath := target + ".lock"

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if os.IsExist(err) {
			if isStale, _ := isLockStale(lockPath); isStale {
				os.Remove(lockPath)
				file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
				if err != nil {
					return nil, ErrLockExists
				}
			} else {
				return nil, ErrLockExists
			}
		} else {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
	}

	// Record PID and timestamp so a human can judge a contested lock
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{
		path: lockPath,
		file: file,
	}, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}

	return nil
}

// isLockStale checks if a lock file is older than the stale lock threshold.
func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}

	age := time.Since(info.ModTime())
	return age > StaleLockThreshold, nil
}
