package patch

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
)

// Verify inspects the four patch offsets in buf and classifies the file.
// It is strictly all-or-nothing: every offset must hold its original
// byte (NeedsPatch) or every offset its replacement byte
// (AlreadyPatched); any mix is UnknownVersion. A buffer too short to
// contain every offset fails with an error wrapping errdefs.ErrOutOfRange.
func Verify(buf []byte) (Result, error) {
	if len(buf) < MinFileSize {
		return UnknownVersion, fmt.Errorf(
			"file is %d bytes, need at least %d to reach offset 0x%08X: %w",
			len(buf), MinFileSize, Entries[len(Entries)-1].Offset, errdefs.ErrOutOfRange)
	}

	original := 0
	patched := 0
	for _, e := range Entries {
		switch buf[e.Offset] {
		case e.Expected:
			original++
		case e.Replacement:
			patched++
		}
	}

	switch {
	case original == len(Entries):
		return NeedsPatch, nil
	case patched == len(Entries):
		return AlreadyPatched, nil
	default:
		return UnknownVersion, nil
	}
}

// VerifyFile reads path in full and verifies it. The file is never
// written, whatever the outcome.
func VerifyFile(path string) (Result, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UnknownVersion, fmt.Errorf("target %s: %w", path, errdefs.ErrNotFound)
		}
		return UnknownVersion, fmt.Errorf("read target: %w", err)
	}
	return Verify(buf)
}

// Describe returns a per-offset account of what buf holds against the
// patch table, for diagnostics when Verify reports UnknownVersion.
func Describe(buf []byte) []string {
	lines := make([]string, 0, len(Entries))
	for i, e := range Entries {
		if int64(len(buf)) <= e.Offset {
			lines = append(lines, fmt.Sprintf("patch %d: offset 0x%08X beyond end of file", i+1, e.Offset))
			continue
		}
		got := buf[e.Offset]
		var state string
		switch got {
		case e.Expected:
			state = "original"
		case e.Replacement:
			state = "patched"
		default:
			state = fmt.Sprintf("unexpected (want 0x%02X or 0x%02X)", e.Expected, e.Replacement)
		}
		lines = append(lines, fmt.Sprintf("patch %d: offset 0x%08X = 0x%02X, %s", i+1, e.Offset, got, state))
	}
	return lines
}
