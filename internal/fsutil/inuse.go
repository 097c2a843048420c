package fsutil

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo identifies a running process that may be holding the
// target module.
type ProcessInfo struct {
	PID  int32
	Name string
}

// InUseBy reports running processes whose executable lives in the same
// directory as the target. A module like mnyob99.dll is loaded by the
// programs installed next to it, so a hit means the application is
// running and a write to the module would either fail or corrupt the
// live process image.
//
// The probe is best effort: enumeration errors and processes whose
// executable path cannot be read (permissions, kernel threads) are
// skipped rather than reported, so an empty result means "no holder
// found", not "provably unused".
func InUseBy(ctx context.Context, target string) []ProcessInfo {
	targetDir, err := filepath.Abs(filepath.Dir(target))
	if err != nil {
		return nil
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil
	}

	var holders []ProcessInfo
	for _, p := range procs {
		exe, err := p.ExeWithContext(ctx)
		if err != nil || exe == "" {
			continue
		}
		if !strings.EqualFold(filepath.Dir(exe), targetDir) {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			name = filepath.Base(exe)
		}
		holders = append(holders, ProcessInfo{PID: p.Pid, Name: name})
	}
	return holders
}
