package locate

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// locationsFileEnv overrides the default locations script path.
const locationsFileEnv = "MONEYPATCH_LOCATIONS_FILE"

// locationsScriptPath returns the path of the user locations script,
// or "" when none is configured and the default does not exist.
func locationsScriptPath() string {
	if p := os.Getenv(locationsFileEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "moneypatch", "locations.lua")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// runLocationsScript executes the user locations script in a sandboxed
// Lua VM and returns the candidate paths it declares. The script sees
// a read-only "platform" table and must set a global "locations" array
// of path strings. Script errors are returned to the caller; a user
// who writes a hook expects to hear when it is broken.
func runLocationsScript(scriptPath string, p *Platform) ([]string, error) {
	L := newSandboxedVM()
	defer L.Close()

	if err := injectPlatformTable(L, p); err != nil {
		return nil, fmt.Errorf("inject platform table: %w", err)
	}

	if err := L.DoFile(scriptPath); err != nil {
		return nil, fmt.Errorf("run locations script %s: %w", scriptPath, err)
	}

	return extractLocations(L)
}

// extractLocations reads the global "locations" array from the Lua state.
func extractLocations(L *lua.LState) ([]string, error) {
	val := L.GetGlobal("locations")
	if val.Type() == lua.LTNil {
		return nil, nil
	}
	table, ok := val.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("global 'locations' must be a table, got %s", val.Type())
	}

	var paths []string
	var convErr error
	table.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}
		s, ok := v.(lua.LString)
		if !ok {
			convErr = fmt.Errorf("locations entry %s is %s, want string", k.String(), v.Type())
			return
		}
		paths = append(paths, string(s))
	})
	if convErr != nil {
		return nil, convErr
	}
	return paths, nil
}

// injectPlatformTable exposes a read-only platform table to the script.
func injectPlatformTable(L *lua.LState, p *Platform) error {
	platformTable := L.NewTable()

	L.SetField(platformTable, "os", lua.LString(p.OS))
	L.SetField(platformTable, "arch", lua.LString(p.Arch))
	L.SetField(platformTable, "hostname", lua.LString(p.Hostname))
	L.SetField(platformTable, "distro", lua.LString(p.Distro))
	L.SetField(platformTable, "is_windows", lua.LBool(p.IsWindows()))

	L.SetGlobal("platform", makeReadOnly(L, platformTable))
	return nil
}

// makeReadOnly makes a Lua table read-only by creating a proxy table
// with a metatable. The proxy redirects reads to the original table
// but prevents all writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
