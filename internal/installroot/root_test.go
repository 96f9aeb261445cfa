package installroot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("rejects empty dir", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})

	t.Run("resolves to absolute path", func(t *testing.T) {
		root, err := New("relative/bin")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(root.Dir()))
	})
}

func TestEnsureIsLazy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "bin")
	root, err := New(dir)
	require.NoError(t, err)

	assert.False(t, root.Exists(), "New must not create the directory")

	require.NoError(t, root.Ensure())
	assert.True(t, root.Exists())

	// Idempotent
	require.NoError(t, root.Ensure())
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "yday", wantErr: false},
		{name: "mixed_case", input: "MyApp", wantErr: false},
		{name: "dashes", input: "ghost-app", wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dotdot", input: "..", wantErr: true},
		{name: "separator", input: "a/b", wantErr: true},
		{name: "reserved", input: ".pget.lock", wantErr: true},
		{name: "reserved_stage", input: ".pget-stage-1234", wantErr: true},
		{name: "sidecar_name", input: "tool_files", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "yday"), root.EntryPath("yday"))
	assert.Equal(t, filepath.Join(dir, "yday_files"), root.SidecarPath("yday"))
}

func TestIsInstalled(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	require.NoError(t, err)

	installed, err := root.IsInstalled("app")
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, os.WriteFile(root.EntryPath("app"), []byte("x"), 0o644))

	installed, err = root.IsInstalled("app")
	require.NoError(t, err)
	assert.True(t, installed, "presence defines installed, regardless of mode")

	// Names are case-sensitive
	installed, err = root.IsInstalled("App")
	require.NoError(t, err)
	if installed {
		// Case-insensitive filesystems cannot distinguish these.
		t.Skip("filesystem is case-insensitive")
	}
}

func TestIsInstalledIgnoresDirectories(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(root.SidecarPath("tool"), 0o755))

	installed, err := root.IsInstalled("tool_files")
	require.NoError(t, err)
	assert.False(t, installed, "a files directory is not an entry")

	err = root.CheckEntry("tool_files")
	assert.ErrorIs(t, err, ErrEntryConflict)
	assert.DirExists(t, root.SidecarPath("tool"))
}

func TestCheckEntry(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, root.CheckEntry("app"), "missing entry")
	require.NoError(t, os.WriteFile(root.EntryPath("app"), []byte("x"), 0o755))
	assert.NoError(t, root.CheckEntry("app"), "file entry")
}

func TestHasSidecar(t *testing.T) {
	dir := t.TempDir()
	root, err := New(dir)
	require.NoError(t, err)

	assert.False(t, root.HasSidecar("app"))
	require.NoError(t, os.Mkdir(root.SidecarPath("app"), 0o755))
	assert.True(t, root.HasSidecar("app"))
}

func TestInstalled(t *testing.T) {
	t.Run("missing root is empty", func(t *testing.T) {
		root, err := New(filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)

		names, err := root.Installed()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("lists executables only in order", func(t *testing.T) {
		dir := t.TempDir()
		root, err := New(dir)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "zeta"), []byte("x"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha"), []byte("x"), 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha_files"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".pget.lock"), []byte("x"), 0o755))

		names, err := root.Installed()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta"}, names)
	})
}
