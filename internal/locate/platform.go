package locate

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Platform describes the host the patcher runs on. It is exposed to
// the user locations script so one script can serve Windows installs
// and Wine prefixes alike.
type Platform struct {
	OS       string // "windows", "linux", "darwin", ...
	Arch     string // "amd64", "arm64", ...
	Hostname string
	// Distro is the OS distribution or product name as reported by the
	// host, empty when detection fails.
	Distro string
}

// IsWindows reports whether the host runs Windows.
func (p *Platform) IsWindows() bool {
	return p.OS == "windows"
}

// detectPlatform gathers host information. Distribution details come
// from gopsutil; a detection failure there degrades to empty fields
// rather than failing the run, since candidate paths only need OS and
// arch to be useful.
func detectPlatform(ctx context.Context) *Platform {
	p := &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return p
	}
	p.Hostname = info.Hostname
	p.Distro = info.Platform

	return p
}
