package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/pget/internal/testutil"
)

// restoreGlobals puts zerolog's globals back after a test mutates them.
func restoreGlobals(t *testing.T) {
	t.Helper()
	level := zerolog.GlobalLevel()
	logger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	})
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{10, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestSetupLoggerWritesConsoleAndFile(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	restoreGlobals(t)

	var console bytes.Buffer
	closeLog := SetupLogger(1, &console)

	logger := GetLogger("lifecycle")
	logger.Info().Str("name", "yday").Msg("Installing")
	require.NoError(t, closeLog())

	assert.Contains(t, console.String(), "Installing")
	assert.Contains(t, console.String(), "lifecycle")

	path := filepath.Join(env.StateDir, "pget", "pget.log")
	assert.Equal(t, path, LogFilePath())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"lifecycle"`)
	assert.Contains(t, string(data), `"name":"yday"`)
}

func TestSetupLoggerQuietByDefault(t *testing.T) {
	testutil.SetupTestEnv(t)
	restoreGlobals(t)

	var console bytes.Buffer
	closeLog := SetupLogger(0, &console)
	defer closeLog()

	log.Info().Msg("not shown")
	log.Warn().Msg("shown")

	assert.NotContains(t, console.String(), "not shown")
	assert.Contains(t, console.String(), "shown")
}

func TestSetupLoggerUnwritableStateDir(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	restoreGlobals(t)

	// A file where the log directory should be
	require.NoError(t, os.WriteFile(filepath.Join(env.StateDir, "pget"), nil, 0o644))

	var console bytes.Buffer
	closeLog := SetupLogger(0, &console)

	assert.Contains(t, console.String(), "Failed to create log file")
	assert.NoError(t, closeLog())
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	restoreGlobals(t)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "install")
	done()

	out := buf.String()
	assert.Contains(t, out, "Operation started")
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"duration"`)
}
