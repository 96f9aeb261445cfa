// Package build compiles an application into a single executable with an
// external build tool and finds the artifact it produced.
//
// # Process
//
//  1. Query the tool for targets under the application namespace (//app).
//  2. Select the first target with a recognized binary suffix, falling back
//     to the default target //app:app.
//  3. Build the selected target.
//  4. Locate the artifact in bazel-bin/app:
//     - an executable regular file, or a regular file without extension;
//     - otherwise one of the historically used output names;
//     - otherwise any file in the directory.
//
// The last rule exists because output layouts vary between packages. When
// several stray files are present, which one it picks is unspecified.
package build

import (
	"context"
	"fmt"
)

// Tool is the build tool capability. Implementations run with the
// repository root as their working directory.
type Tool interface {
	// QueryTargets lists the targets under namespace.
	QueryTargets(ctx context.Context, namespace string) (Result, error)
	// BuildTarget builds one target.
	BuildTarget(ctx context.Context, target string) (Result, error)
}

// NewToolFunc binds a Tool to a repository root.
type NewToolFunc func(repoRoot string) Tool

// Result is the outcome of one tool invocation. A non-nil error from a Tool
// method means the tool could not be run at all; a tool that ran and failed
// reports a non-zero ExitCode instead.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the invocation exited successfully.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Diagnostics returns the most useful output for a failed invocation.
func (r Result) Diagnostics() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// ErrorKind identifies which step of a build failed.
type ErrorKind int

const (
	// QueryFailed means target enumeration failed.
	QueryFailed ErrorKind = iota + 1
	// BuildFailed means the build of the selected target failed.
	BuildFailed
	// ArtifactNotFound means the build succeeded but no output was found.
	ArtifactNotFound
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case QueryFailed:
		return "query-failed"
	case BuildFailed:
		return "build-failed"
	case ArtifactNotFound:
		return "artifact-not-found"
	default:
		return "unknown"
	}
}

// BuildError is returned by Driver.Build.
type BuildError struct {
	Kind   ErrorKind
	Target string
	// Output carries the tool's diagnostic text, if any.
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	msg := e.Kind.String()
	if e.Target != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
