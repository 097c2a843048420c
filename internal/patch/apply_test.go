package patch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
)

func TestApply(t *testing.T) {
	t.Run("patches exactly the four offsets", func(t *testing.T) {
		buf := fixture(func(e Entry) byte { return e.Expected })
		pristine := bytes.Clone(buf)

		changes, err := Apply(buf)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(changes) != len(Entries) {
			t.Fatalf("expected %d changes, got %d", len(Entries), len(changes))
		}

		for i, e := range Entries {
			if buf[e.Offset] != e.Replacement {
				t.Errorf("offset 0x%08X = 0x%02X, want 0x%02X", e.Offset, buf[e.Offset], e.Replacement)
			}
			if changes[i].Before != e.Expected || changes[i].After != e.Replacement {
				t.Errorf("change %d = %+v, want before 0x%02X after 0x%02X", i, changes[i], e.Expected, e.Replacement)
			}
			// Restore the patched byte; the rest must match the pristine copy
			buf[e.Offset] = e.Expected
		}
		if !bytes.Equal(buf, pristine) {
			t.Error("bytes outside the patch offsets were modified")
		}
	})

	t.Run("refuses an already patched buffer", func(t *testing.T) {
		buf := fixture(func(e Entry) byte { return e.Replacement })
		pristine := bytes.Clone(buf)

		_, err := Apply(buf)
		if err == nil {
			t.Fatal("expected error for already patched buffer")
		}
		if !errdefs.IsFailedPrecondition(err) {
			t.Errorf("expected failed-precondition error, got %v", err)
		}
		if !bytes.Equal(buf, pristine) {
			t.Error("buffer was modified despite refusal")
		}
	})

	t.Run("refuses a mixed buffer", func(t *testing.T) {
		buf := fixture(func(e Entry) byte { return e.Expected })
		buf[Entries[0].Offset] = 0x00
		pristine := bytes.Clone(buf)

		_, err := Apply(buf)
		if err == nil {
			t.Fatal("expected error for mixed buffer")
		}
		if !bytes.Equal(buf, pristine) {
			t.Error("buffer was modified despite refusal")
		}
	})
}

func TestApplyFile(t *testing.T) {
	t.Run("patches and re-verifies", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "mnyob99.dll")
		if err := os.WriteFile(path, fixture(func(e Entry) byte { return e.Expected }), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		report, err := ApplyFile(path)
		if err != nil {
			t.Fatalf("ApplyFile failed: %v", err)
		}
		if report.Path != path {
			t.Errorf("report path = %q, want %q", report.Path, path)
		}
		if len(report.Changes) != len(Entries) {
			t.Errorf("expected %d changes, got %d", len(Entries), len(report.Changes))
		}

		result, err := VerifyFile(path)
		if err != nil {
			t.Fatalf("VerifyFile after patch failed: %v", err)
		}
		if result != AlreadyPatched {
			t.Errorf("expected %v after patch, got %v", AlreadyPatched, result)
		}

		// No temp files left behind
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read dir: %v", err)
		}
		for _, e := range entries {
			if strings.Contains(e.Name(), ".tmp-") {
				t.Errorf("temporary file left behind: %s", e.Name())
			}
		}
	})

	t.Run("second run refuses, file unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mnyob99.dll")
		if err := os.WriteFile(path, fixture(func(e Entry) byte { return e.Expected }), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		if _, err := ApplyFile(path); err != nil {
			t.Fatalf("first ApplyFile failed: %v", err)
		}
		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read patched file: %v", err)
		}

		_, err = ApplyFile(path)
		if err == nil {
			t.Fatal("expected error for second ApplyFile")
		}
		if !errdefs.IsFailedPrecondition(err) {
			t.Errorf("expected failed-precondition error, got %v", err)
		}

		again, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("re-read patched file: %v", err)
		}
		if !bytes.Equal(after, again) {
			t.Error("second run modified the file")
		}
	})

	t.Run("unknown version leaves file bit-identical", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mnyob99.dll")
		buf := fixture(func(e Entry) byte { return e.Expected })
		buf[Entries[0].Offset] = 0x00
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		if _, err := ApplyFile(path); err == nil {
			t.Fatal("expected error for unknown version")
		}

		onDisk, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if !bytes.Equal(onDisk, buf) {
			t.Error("file was modified despite unknown version")
		}
	})

	t.Run("truncated file fails without writing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mnyob99.dll")
		short := []byte{0x4D, 0x5A, 0x90, 0x00}
		if err := os.WriteFile(path, short, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		_, err := ApplyFile(path)
		if err == nil {
			t.Fatal("expected error for truncated file")
		}
		if !errdefs.IsOutOfRange(err) {
			t.Errorf("expected out-of-range error, got %v", err)
		}

		onDisk, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if !bytes.Equal(onDisk, short) {
			t.Error("truncated file was modified")
		}
	})

	t.Run("missing file is not found", func(t *testing.T) {
		_, err := ApplyFile(filepath.Join(t.TempDir(), "missing.dll"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if !errdefs.IsNotFound(err) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("preserves file mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mnyob99.dll")
		if err := os.WriteFile(path, fixture(func(e Entry) byte { return e.Expected }), 0o600); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		if _, err := ApplyFile(path); err != nil {
			t.Fatalf("ApplyFile failed: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})
}

func TestReportFormat(t *testing.T) {
	report := &Report{
		Path:         "mnyob99.dll",
		Changes:      []Change{{Offset: 0x003FACE8, Before: 0x85, After: 0x8D}},
		BytesWritten: 42,
	}

	out := report.Format()
	for _, want := range []string{"mnyob99.dll", "0x003FACE8", "0x85", "0x8D"} {
		if !strings.Contains(out, want) {
			t.Errorf("report %q missing %q", out, want)
		}
	}
}
