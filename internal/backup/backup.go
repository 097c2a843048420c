// Package backup creates and restores the sibling copy of the target
// module that is taken before any byte is modified.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/containerd/errdefs"

	"github.com/mnyfix/moneypatch/internal/fsutil"
)

// Suffix is appended to the target path to name its backup.
const Suffix = ".backup"

// PathFor returns the backup path for a target.
func PathFor(target string) string {
	return target + Suffix
}

// Create copies target to target + Suffix and returns the backup path.
// If a backup already exists it is reused when byte-identical to the
// current target; an existing backup with different content fails with
// an error wrapping errdefs.ErrConflict, because overwriting it would
// destroy the only pristine copy.
func Create(target string) (string, error) {
	backupPath := PathFor(target)

	if _, err := os.Stat(backupPath); err == nil {
		same, err := sameContent(target, backupPath)
		if err != nil {
			return "", fmt.Errorf("compare existing backup: %w", err)
		}
		if !same {
			return "", fmt.Errorf("backup %s exists and differs from target: %w", backupPath, errdefs.ErrConflict)
		}
		return backupPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat backup: %w", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("read target: %w", err)
	}
	if err := fsutil.WriteFileAtomic(backupPath, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backupPath, nil
}

// Restore copies the backup back over the target atomically. The
// backup itself is never removed.
func Restore(target string) error {
	backupPath := PathFor(target)

	info, err := os.Stat(backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no backup at %s: %w", backupPath, errdefs.ErrNotFound)
		}
		return fmt.Errorf("stat backup: %w", err)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if err := fsutil.WriteFileAtomic(target, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

// sameContent compares two files by SHA-256.
func sameContent(a, b string) (bool, error) {
	ha, err := fileSHA256(a)
	if err != nil {
		return false, err
	}
	hb, err := fileSHA256(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// fileSHA256 calculates the SHA256 checksum of a file
func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
