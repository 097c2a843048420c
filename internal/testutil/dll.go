// Package testutil builds fake mnyob99.dll fixtures so patch tests
// never need a real Money install.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mnyfix/moneypatch/internal/patch"
)

// DLLState selects which bytes the fixture holds at the patch offsets.
type DLLState int

const (
	// StateOriginal holds every expected (unpatched) byte.
	StateOriginal DLLState = iota
	// StatePatched holds every replacement byte.
	StatePatched
	// StateMixed holds one unrecognized byte and three patched ones.
	StateMixed
	// StateForeign holds unrecognized bytes at every offset.
	StateForeign
)

// FixtureSize matches a realistic module: comfortably past the highest
// patch offset.
const FixtureSize = 4 << 20

// Buffer returns a FixtureSize byte buffer in the requested state.
// Bytes outside the patch offsets follow a deterministic pattern so
// tests can assert they survive patching untouched.
func Buffer(state DLLState) []byte {
	buf := make([]byte, FixtureSize)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	for i, e := range patch.Entries {
		switch state {
		case StateOriginal:
			buf[e.Offset] = e.Expected
		case StatePatched:
			buf[e.Offset] = e.Replacement
		case StateMixed:
			if i == 0 {
				buf[e.Offset] = 0x00
			} else {
				buf[e.Offset] = e.Replacement
			}
		case StateForeign:
			buf[e.Offset] = 0x00
		}
	}
	return buf
}

// WriteDLL writes a fixture module into dir and returns its path.
func WriteDLL(t *testing.T, dir string, state DLLState) string {
	t.Helper()

	path := filepath.Join(dir, "mnyob99.dll")
	if err := os.WriteFile(path, Buffer(state), 0o644); err != nil {
		t.Fatalf("failed to write fixture dll: %v", err)
	}
	return path
}
