package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// Namespace is the package whose targets are queried.
	Namespace = "//app"
	// DefaultTarget is built when no recognized binary target exists.
	DefaultTarget = "//app:app"
)

// binarySuffixes mark a queried target as a binary candidate.
var binarySuffixes = []string{":yday", ":pget_bin", ":yday_bin"}

// legacyArtifacts are output names checked when the directory scan finds
// nothing, relative to the output directory. None has an extension, so the
// extensionless rule of the scan already matches them; the list only backs
// up that rule.
var legacyArtifacts = []string{"app", "pget_bin", "yday", "yday_bin"}

// OutputDir returns the directory holding build outputs for the namespace.
func OutputDir(repoRoot string) string {
	return filepath.Join(repoRoot, "bazel-bin", "app")
}

// Driver runs query, select, build and locate against a Tool.
type Driver struct {
	newTool NewToolFunc
	logger  zerolog.Logger
}

// NewDriver creates a driver.
func NewDriver(newTool NewToolFunc, logger zerolog.Logger) *Driver {
	return &Driver{newTool: newTool, logger: logger}
}

// Build compiles the repository at repoRoot and returns the artifact path.
// All failures are *BuildError.
func (d *Driver) Build(ctx context.Context, repoRoot string) (string, error) {
	tool := d.newTool(repoRoot)

	d.logger.Info().Str("namespace", Namespace).Msg("Querying build targets")
	res, err := tool.QueryTargets(ctx, Namespace)
	if err != nil {
		return "", &BuildError{Kind: QueryFailed, Output: res.Diagnostics(), Err: err}
	}
	if !res.OK() {
		return "", &BuildError{
			Kind:   QueryFailed,
			Output: res.Diagnostics(),
			Err:    fmt.Errorf("exit status %d", res.ExitCode),
		}
	}

	target := SelectTarget(ParseTargets(res.Stdout))
	d.logger.Info().Str("target", target).Msg("Building target")

	res, err = tool.BuildTarget(ctx, target)
	if err != nil {
		return "", &BuildError{Kind: BuildFailed, Target: target, Output: res.Diagnostics(), Err: err}
	}
	if !res.OK() {
		return "", &BuildError{
			Kind:   BuildFailed,
			Target: target,
			Output: res.Diagnostics(),
			Err:    fmt.Errorf("exit status %d", res.ExitCode),
		}
	}

	artifact, err := LocateArtifact(OutputDir(repoRoot))
	if err != nil {
		return "", &BuildError{Kind: ArtifactNotFound, Target: target, Err: err}
	}
	d.logger.Debug().Str("artifact", artifact).Msg("Located build artifact")
	return artifact, nil
}

// ParseTargets splits query output into target labels.
func ParseTargets(output string) []string {
	var targets []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			targets = append(targets, line)
		}
	}
	return targets
}

// SelectTarget returns the first binary candidate, or DefaultTarget.
func SelectTarget(targets []string) string {
	for _, target := range targets {
		if IsBinaryCandidate(target) {
			return target
		}
	}
	return DefaultTarget
}

// IsBinaryCandidate reports whether target has a recognized binary suffix.
func IsBinaryCandidate(target string) bool {
	for _, suffix := range binarySuffixes {
		if strings.HasSuffix(target, suffix) {
			return true
		}
	}
	return false
}

// errNoArtifact is wrapped when no rule matches.
var errNoArtifact = errors.New("no binary found in bazel-bin directory")

// LocateArtifact searches outDir in rule order and returns the first match.
func LocateArtifact(outDir string) (string, error) {
	entries, readErr := os.ReadDir(outDir)

	// Executable or extensionless regular files, in one pass.
	for _, entry := range entries {
		path := filepath.Join(outDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 || filepath.Ext(entry.Name()) == "" {
			return path, nil
		}
	}

	for _, name := range legacyArtifacts {
		path := filepath.Join(outDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	// Last resort: anything that is not a directory.
	for _, entry := range entries {
		if !entry.IsDir() {
			return filepath.Join(outDir, entry.Name()), nil
		}
	}

	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %v", errNoArtifact, readErr)
	}
	return "", errNoArtifact
}
