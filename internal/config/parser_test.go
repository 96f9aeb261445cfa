package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/pget/internal/platform"
)

var linuxHost = platform.StaticDetector{Info: platform.Info{OS: "linux", Arch: "amd64", Distro: "ubuntu", Family: platform.FamilyDebian}}

func TestParseString(t *testing.T) {
	tests := []struct {
		name string
		code string
		want map[string]any
	}{
		{
			name: "empty table",
			code: `pget = {}`,
			want: map[string]any{},
		},
		{
			name: "all fields",
			code: `pget = {
				install_root = "/opt/pget/bin",
				owner = "acme",
				branch = "dev",
				build = { tool = "bazelisk", timeout = "45m" },
				fetch = { timeout = 90, retries = 5 },
			}`,
			want: map[string]any{
				KeyInstallRoot:  "/opt/pget/bin",
				KeyOwner:        "acme",
				KeyBranch:       "dev",
				KeyBuildTool:    "bazelisk",
				KeyBuildTimeout: "45m0s",
				KeyFetchTimeout: "1m30s",
				KeyRetries:      5,
			},
		},
		{
			name: "platform conditional",
			code: `pget = { build = { tool = platform.is_linux and "bazel" or "bazelisk" } }`,
			want: map[string]any{KeyBuildTool: "bazel"},
		},
		{
			name: "platform when helper",
			code: `pget = { owner = platform.when(platform.is_macos, "mac-owner") }`,
			want: map[string]any{},
		},
		{
			name: "string and table helpers",
			code: `local parts = {"py", "nosaur"}
				pget = { owner = table.concat(parts, ""), branch = string.lower("MAIN") }`,
			want: map[string]any{KeyOwner: "pynosaur", KeyBranch: "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParser(linuxHost).ParseString(context.Background(), tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStringErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{name: "syntax", code: `pget = {`, wantMsg: "Lua error"},
		{name: "missing table", code: `x = 1`, wantMsg: "missing or invalid 'pget' table"},
		{name: "wrong root type", code: `pget = "yes"`, wantMsg: "missing or invalid 'pget' table"},
		{name: "wrong field type", code: `pget = { owner = 42 }`, wantMsg: "invalid value for owner"},
		{name: "bad duration", code: `pget = { build = { timeout = "soon" } }`, wantMsg: "invalid value for build_timeout"},
		{name: "fractional retries", code: `pget = { fetch = { retries = 1.5 } }`, wantMsg: "invalid value for retries"},
		{name: "build not a table", code: `pget = { build = "bazel" }`, wantMsg: "invalid 'build' table"},
		{name: "runtime error", code: `error("boom")`, wantMsg: "Lua error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(linuxHost).ParseString(context.Background(), tt.code)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantMsg, parseErr.Message)
		})
	}
}

func TestSandbox(t *testing.T) {
	blocked := map[string]string{
		"os.execute":  `os.execute("ls")`,
		"os.getenv":   `x = os.getenv("HOME")`,
		"io.open":     `io.open("/etc/passwd")`,
		"require":     `require("socket")`,
		"dofile":      `dofile("/tmp/evil.lua")`,
		"loadfile":    `loadfile("/tmp/evil.lua")`,
		"load":        `load("return 1")`,
		"loadstring":  `loadstring("return 1")`,
		"debug":       `debug.getinfo(1)`,
		"collectgarb": `collectgarbage()`,
	}
	for name, code := range blocked {
		t.Run(name, func(t *testing.T) {
			_, err := NewParser(nil).ParseString(context.Background(), code+"\npget = {}")
			assert.Error(t, err)
		})
	}
}

func TestParseStringTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "evaluation timed out", parseErr.Message)
}

func TestParseStringTooLarge(t *testing.T) {
	code := "pget = {}\n--" + strings.Repeat("x", MaxFileSize)
	_, err := NewParser(nil).ParseString(context.Background(), code)
	assert.Error(t, err)
}

func TestNoPlatformWithoutDetector(t *testing.T) {
	_, err := NewParser(nil).ParseString(context.Background(), `pget = { owner = platform.os }`)
	assert.Error(t, err, "platform is undefined without a detector")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.lua")
	require.NoError(t, os.WriteFile(path, []byte(`pget = { owner = "acme" }`), 0o644))

	got, err := NewParser(linuxHost).ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{KeyOwner: "acme"}, got)

	bad := filepath.Join(dir, "bad.lua")
	require.NoError(t, os.WriteFile(bad, []byte(`pget = {`), 0o644))
	_, err = NewParser(linuxHost).ParseFile(context.Background(), bad)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, bad, parseErr.File)
	assert.True(t, strings.HasPrefix(err.Error(), bad+": Lua error"))

	_, err = NewParser(linuxHost).ParseFile(context.Background(), filepath.Join(dir, "missing.lua"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewParser(linuxHost).ParseFile(context.Background(), dir)
	assert.ErrorAs(t, err, &parseErr)
}

func TestFormatError(t *testing.T) {
	err := &ParseError{
		File:    "config.lua",
		Message: "Lua error",
		Detail:  "<string>:1: unexpected EOF\nstack traceback:\n\t[G]: ?",
	}

	short := FormatError(err, false)
	assert.Equal(t, "config.lua: Lua error: <string>:1: unexpected EOF", short)

	verbose := FormatError(err, true)
	assert.Contains(t, verbose, "stack traceback")

	assert.Equal(t, "plain", FormatError(assertErr("plain"), false))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
