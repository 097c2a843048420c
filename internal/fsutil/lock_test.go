package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/containerd/errdefs"
)

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file next to target", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "mnyob99.dll")

		lock, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer lock.Release()

		if _, err := os.Stat(target + ".lock"); os.IsNotExist(err) {
			t.Error("lock file not created")
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "mnyob99.dll")

		lock1, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}
		defer lock1.Release()

		_, err = AcquireLock(target)
		if err == nil {
			t.Error("expected error for concurrent lock")
		}
		if !errors.Is(err, ErrLockExists) {
			t.Errorf("expected ErrLockExists, got %v", err)
		}
		if !errdefs.IsUnavailable(err) {
			t.Errorf("expected unavailable error, got %v", err)
		}
	})

	t.Run("release allows reacquisition", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "mnyob99.dll")

		lock1, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		if err := lock1.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}

		lock2, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("reacquire failed: %v", err)
		}
		lock2.Release()
	})

	t.Run("breaks a stale lock", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "mnyob99.dll")
		lockPath := target + ".lock"

		if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0o600); err != nil {
			t.Fatalf("write stale lock: %v", err)
		}
		old := time.Now().Add(-StaleLockThreshold - time.Minute)
		if err := os.Chtimes(lockPath, old, old); err != nil {
			t.Fatalf("age lock file: %v", err)
		}

		lock, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("AcquireLock should break stale lock, got: %v", err)
		}
		lock.Release()
	})

	t.Run("release is idempotent", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "mnyob99.dll")

		lock, err := AcquireLock(target)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("first Release failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("second Release failed: %v", err)
		}
	})
}
