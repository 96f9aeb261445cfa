// Package testutil provides utilities for testing pget in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Home      string
	ConfigDir string
	StateDir  string
	Root      string
}

// SetupTestEnv creates isolated test directories for each test.
// This ensures pget tests never interfere with the user's real install root,
// config file or log file.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		Home:      filepath.Join(tmpDir, "home"),
		ConfigDir: filepath.Join(tmpDir, "config"),
		StateDir:  filepath.Join(tmpDir, "state"),
		Root:      filepath.Join(tmpDir, "home", ".pget", "bin"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("XDG_CONFIG_HOME", env.ConfigDir)
	t.Setenv("XDG_STATE_HOME", env.StateDir)

	// Clear overrides that may leak in from the developer's shell
	for _, key := range []string{
		"PGET_INSTALL_ROOT", "PGET_OWNER", "PGET_BRANCH", "PGET_BUILD_TOOL",
		"PGET_FETCH_TIMEOUT", "PGET_BUILD_TIMEOUT", "PGET_RETRIES", "PGET_CONFIG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	for _, dir := range []string{env.Home, env.ConfigDir, env.StateDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return env
}
