package shell

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ParentFunc reports the name and executable path of the parent process.
type ParentFunc func(ctx context.Context) (name, exe string, err error)

// Detector finds the user's shell.
type Detector struct {
	Getenv func(string) string
	Parent ParentFunc
}

// NewDetector returns a Detector reading $SHELL and the parent process.
func NewDetector() *Detector {
	return &Detector{Getenv: os.Getenv, Parent: parentProcess}
}

// Detect tries $SHELL first, then the parent process. It never fails; an
// undetectable shell is reported as ShellUnknown.
func (d *Detector) Detect(ctx context.Context) *DetectionResult {
	if shell := d.Getenv("SHELL"); shell != "" {
		if s := Parse(shell); s.IsValid() {
			return &DetectionResult{
				Shell:      s,
				Method:     "$SHELL environment variable",
				ShellPath:  shell,
				Confidence: "high",
			}
		}
	}

	if d.Parent != nil {
		if name, exe, err := d.Parent(ctx); err == nil {
			if s := Parse(name); s.IsValid() {
				return &DetectionResult{
					Shell:      s,
					Method:     "parent process",
					ShellPath:  exe,
					Confidence: "medium",
				}
			}
		}
	}

	return &DetectionResult{
		Shell:      ShellUnknown,
		Method:     "detection failed",
		Confidence: "none",
	}
}

func parentProcess(ctx context.Context) (string, string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getppid()))
	if err != nil {
		return "", "", err
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return "", "", err
	}
	// exe is informational; some platforms refuse it for other users
	exe, _ := p.ExeWithContext(ctx)
	return name, exe, nil
}

// normalizeName maps "/usr/bin/zsh", "-zsh" and "ZSH" to "zsh".
func normalizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimPrefix(base, "-")
	return strings.ToLower(base)
}
