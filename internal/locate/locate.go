// Package locate finds the mnyob99.dll module to patch, either from an
// explicit path or by walking an ordered list of conventional install
// locations. Users can prepend candidates via a sandboxed Lua script.
package locate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/containerd/errdefs"
)

// DLLName is the module this tool patches.
const DLLName = "mnyob99.dll"

// installSubdir is the vendor's path below Program Files.
const installSubdir = `Microsoft Money Plus\MNYCoreFiles`

// Locate resolves the target module. An explicit path is used verbatim
// and must exist. Without one, the first existing candidate wins. Both
// failures wrap errdefs.ErrNotFound; the search failure lists every
// path that was tried so the user can see why discovery came up empty.
func Locate(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%s: %w", explicit, errdefs.ErrNotFound)
			}
			return "", fmt.Errorf("stat %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates, err := Candidates(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%s not found, tried:\n  %s\n%w",
		DLLName, strings.Join(candidates, "\n  "), errdefs.ErrNotFound)
}

// Candidates returns the ordered search list: user script results
// first, then the conventional install locations for this host, then
// the current directory.
func Candidates(ctx context.Context) ([]string, error) {
	p := detectPlatform(ctx)

	var candidates []string
	if script := locationsScriptPath(); script != "" {
		userPaths, err := runLocationsScript(script, p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, userPaths...)
	}

	candidates = append(candidates, builtinCandidates(p)...)
	candidates = append(candidates, DLLName) // current working directory
	return candidates, nil
}

// builtinCandidates lists the conventional install locations. On
// Windows the Program Files roots come from the environment so non-C:
// installs still resolve; elsewhere the same tree is probed inside the
// default Wine prefix.
func builtinCandidates(p *Platform) []string {
	if p.IsWindows() {
		x86 := os.Getenv("ProgramFiles(x86)")
		if x86 == "" {
			x86 = `C:\Program Files (x86)`
		}
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return []string{
			filepath.Join(x86, installSubdir, DLLName),
			filepath.Join(pf, installSubdir, DLLName),
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	driveC := filepath.Join(home, ".wine", "drive_c")
	return []string{
		filepath.Join(driveC, "Program Files (x86)", "Microsoft Money Plus", "MNYCoreFiles", DLLName),
		filepath.Join(driveC, "Program Files", "Microsoft Money Plus", "MNYCoreFiles", DLLName),
	}
}
