package patch

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"

	"github.com/mnyfix/moneypatch/internal/fsutil"
)

// Apply overwrites the four patch offsets in buf with their replacement
// bytes. The buffer must verify as NeedsPatch; anything else fails with
// an error wrapping errdefs.ErrFailedPrecondition and leaves buf
// untouched. No byte outside the four offsets is modified.
func Apply(buf []byte) ([]Change, error) {
	result, err := Verify(buf)
	if err != nil {
		return nil, err
	}
	if result != NeedsPatch {
		return nil, fmt.Errorf("buffer is %s, refusing to patch: %w", result, errdefs.ErrFailedPrecondition)
	}

	changes := make([]Change, 0, len(Entries))
	for _, e := range Entries {
		changes = append(changes, Change{Offset: e.Offset, Before: buf[e.Offset], After: e.Replacement})
		buf[e.Offset] = e.Replacement
	}
	return changes, nil
}

// ApplyFile patches the file at path. The whole file is read once,
// verified, patched in memory, and written back in a single atomic
// replacement (temp file plus rename); the original permissions are
// preserved. After the rename the file is re-read and must verify as
// AlreadyPatched. On any failure the on-disk file is byte-for-byte
// unchanged.
func ApplyFile(path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("target %s: %w", path, errdefs.ErrNotFound)
		}
		return nil, fmt.Errorf("stat target: %w", err)
	}
	if info.Size() >= MinFileSize && info.Size() < suspectSize {
		logrus.WithFields(logrus.Fields{
			"path": path,
			"size": info.Size(),
		}).Warn("file looks too small to be mnyob99.dll")
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target: %w", err)
	}

	changes, err := Apply(buf)
	if err != nil {
		return nil, err
	}

	if err := fsutil.WriteFileAtomic(path, buf, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write patched file: %w: %w", err, errdefs.ErrAborted)
	}

	// The rename succeeded; confirm the bytes on disk before reporting.
	result, err := VerifyFile(path)
	if err != nil {
		return nil, fmt.Errorf("re-verify patched file: %w", err)
	}
	if result != AlreadyPatched {
		return nil, fmt.Errorf("re-verify patched file: got %s, want %s: %w", result, AlreadyPatched, errdefs.ErrAborted)
	}

	return &Report{Path: path, Changes: changes, BytesWritten: len(buf)}, nil
}
