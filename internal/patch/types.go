package patch

import "fmt"

// Entry describes a single-byte modification at a fixed file offset.
// Expected is the byte found in an unpatched mnyob99.dll, Replacement
// the byte after the fix. Keeping both values in the table lets the
// same table drive verification, application, and reporting.
type Entry struct {
	Offset      int64
	Expected    byte
	Replacement byte
}

// Entries is the fixed patch table for the mnyob99.dll import crash fix.
// Offsets are absolute file offsets, not virtual addresses.
//
// Reference: https://devblogs.microsoft.com/oldnewthing/20121113-00/?p=6103
var Entries = [4]Entry{
	{Offset: 0x003FACE8, Expected: 0x85, Replacement: 0x8D},
	{Offset: 0x003FACED, Expected: 0x50, Replacement: 0x51},
	{Offset: 0x003FACF0, Expected: 0xFF, Replacement: 0x85},
	{Offset: 0x003FACF6, Expected: 0xE8, Replacement: 0xB9},
}

// MinFileSize is the smallest file that can contain every patch offset.
const MinFileSize = 0x003FACF6 + 1

// suspectSize is a sanity threshold: mnyob99.dll is several megabytes,
// so anything under 1 MB is probably the wrong file even if it happens
// to be long enough to index.
const suspectSize = 1 << 20

// Result is the outcome of verifying the four patch offsets.
type Result int

const (
	// NeedsPatch means all four offsets hold their original bytes.
	NeedsPatch Result = iota
	// AlreadyPatched means all four offsets hold their replacement bytes.
	AlreadyPatched
	// UnknownVersion means the offsets hold a mixed or unrecognized
	// pattern; the file must not be written.
	UnknownVersion
)

// String returns the string representation of the verification result.
func (r Result) String() string {
	switch r {
	case NeedsPatch:
		return "needs patch"
	case AlreadyPatched:
		return "already patched"
	case UnknownVersion:
		return "unknown version"
	default:
		return "invalid"
	}
}

// Change records one applied byte modification for reporting.
type Change struct {
	Offset int64
	Before byte
	After  byte
}

// Report summarizes a completed patch application.
type Report struct {
	Path    string
	Changes []Change
	// BytesWritten is the size of the rewritten file.
	BytesWritten int
}

// Format renders the report for user display.
func (r *Report) Format() string {
	s := fmt.Sprintf("Patched %s (%d bytes written)\n", r.Path, r.BytesWritten)
	for i, c := range r.Changes {
		s += fmt.Sprintf("  patch %d: offset 0x%08X: 0x%02X -> 0x%02X\n", i+1, c.Offset, c.Before, c.After)
	}
	return s
}
