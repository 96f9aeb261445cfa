package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBazelBinary is the build tool executable looked up on PATH.
const DefaultBazelBinary = "bazel"

// DisplayName names the build tool in user-facing messages.
const DisplayName = "Bazel"

// waitDelay bounds how long output pipes are drained after cancellation.
const waitDelay = 5 * time.Second

// Bazel runs the bazel CLI in a repository root.
type Bazel struct {
	binary string
	dir    string
	logger zerolog.Logger
}

// NewBazel returns a Tool that runs binary with dir as its working directory.
func NewBazel(binary, dir string, logger zerolog.Logger) *Bazel {
	if binary == "" {
		binary = DefaultBazelBinary
	}
	return &Bazel{binary: binary, dir: dir, logger: logger}
}

// BazelFactory returns a NewToolFunc producing Bazel tools.
func BazelFactory(binary string, logger zerolog.Logger) NewToolFunc {
	return func(repoRoot string) Tool {
		return NewBazel(binary, repoRoot, logger)
	}
}

// QueryTargets runs "bazel query <namespace>:*".
func (b *Bazel) QueryTargets(ctx context.Context, namespace string) (Result, error) {
	return b.run(ctx, "query", namespace+":*")
}

// BuildTarget runs "bazel build <target>".
func (b *Bazel) BuildTarget(ctx context.Context, target string) (Result, error) {
	return b.run(ctx, "build", target)
}

func (b *Bazel) run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.Dir = b.dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug().Str("command", b.binary).Strs("args", args).Str("dir", b.dir).Msg("Executing command")

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s %s: %w", b.binary, args[0], ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("run %s: %w", b.binary, err)
	}
	return result, nil
}
