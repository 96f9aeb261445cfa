package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZebulonRouseFrantzich/pget/internal/build"
	"github.com/ZebulonRouseFrantzich/pget/internal/fetch"
)

// Fetcher serves archives from memory. Names without an archive yield
// fetch.ErrNotFound.
type Fetcher struct {
	mu       sync.Mutex
	archives map[string][]byte
	calls    []string
	// Err, when set, is returned for every call.
	Err error
}

// NewFetcher returns a Fetcher with no archives.
func NewFetcher() *Fetcher {
	return &Fetcher{archives: map[string][]byte{}}
}

// Set registers the archive returned for name.
func (f *Fetcher) Set(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives[name] = data
}

// Fetch implements fetch.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	data, ok := f.archives[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fetch.ErrNotFound, name)
	}
	return data, nil
}

// Calls returns the names fetched so far.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// BuildTool is a scripted build.Tool. On a successful BuildTarget it writes
// Outputs into the repository's bazel-bin/app directory.
type BuildTool struct {
	QueryOutput string
	QueryExit   int
	BuildExit   int
	BuildStderr string
	// Outputs maps artifact file names to their content; all are written 0755.
	Outputs map[string]string

	mu       sync.Mutex
	repoRoot string
	built    []string
}

// Factory returns a build.NewToolFunc that hands out t bound to the repo root.
func (t *BuildTool) Factory() build.NewToolFunc {
	return func(repoRoot string) build.Tool {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.repoRoot = repoRoot
		return t
	}
}

// QueryTargets implements build.Tool.
func (t *BuildTool) QueryTargets(ctx context.Context, namespace string) (build.Result, error) {
	if err := ctx.Err(); err != nil {
		return build.Result{}, err
	}
	return build.Result{ExitCode: t.QueryExit, Stdout: t.QueryOutput}, nil
}

// BuildTarget implements build.Tool.
func (t *BuildTool) BuildTarget(ctx context.Context, target string) (build.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.built = append(t.built, target)

	if err := ctx.Err(); err != nil {
		return build.Result{}, err
	}
	if t.BuildExit != 0 {
		return build.Result{ExitCode: t.BuildExit, Stderr: t.BuildStderr}, nil
	}

	outDir := build.OutputDir(t.repoRoot)
	for name, content := range t.Outputs {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return build.Result{}, err
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return build.Result{}, err
		}
		if err := os.Chmod(path, 0o755); err != nil {
			return build.Result{}, err
		}
	}
	return build.Result{}, nil
}

// Built returns the targets built so far.
func (t *BuildTool) Built() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.built...)
}
