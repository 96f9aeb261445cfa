// Package lifecycle installs, upgrades, removes and lists applications in an
// install root. It ties together fetching, extraction, classification,
// optional compilation and atomic deployment.
package lifecycle

import (
	"errors"

	"github.com/ZebulonRouseFrantzich/pget/internal/archive"
	"github.com/ZebulonRouseFrantzich/pget/internal/installroot"
)

var (
	// ErrNoCandidate means the remote has no archive for the name, or the
	// archive has no app/ package.
	ErrNoCandidate = errors.New("no candidate")

	// ErrNotInstalled is returned by Upgrade for a name with no entry.
	ErrNotInstalled = errors.New("not installed")

	// ErrInvalidName is returned for names that would escape the install root.
	ErrInvalidName = installroot.ErrInvalidName

	// ErrEntryConflict is returned when a directory occupies the entry path.
	// Nothing is deleted to make room.
	ErrEntryConflict = installroot.ErrEntryConflict

	// ErrCompileUnsupported is returned when compilation is requested from a
	// Manager built without a build driver.
	ErrCompileUnsupported = errors.New("compilation is not configured")
)

// Status is the outcome of an operation that did not fail.
type Status int

const (
	StatusInstalled Status = iota + 1
	StatusAlreadyInstalled
	StatusUpgraded
	StatusRemoved
	StatusNotInstalled
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusAlreadyInstalled:
		return "already-installed"
	case StatusUpgraded:
		return "upgraded"
	case StatusRemoved:
		return "removed"
	case StatusNotInstalled:
		return "not-installed"
	default:
		return "unknown"
	}
}

// Shape is the on-disk form of a deployed entry.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeSingleFile
	ShapeMultiFile
	ShapeCompiled
)

// String returns the string representation of the shape
func (s Shape) String() string {
	switch s {
	case ShapeSingleFile:
		return "single-file"
	case ShapeMultiFile:
		return "multi-file"
	case ShapeCompiled:
		return "compiled"
	default:
		return "none"
	}
}

func shapeOf(kind archive.Kind) Shape {
	switch kind {
	case archive.KindSingleFile:
		return ShapeSingleFile
	case archive.KindMultiFile:
		return ShapeMultiFile
	default:
		return ShapeNone
	}
}

// Phase marks the start of a long-running step of Install or Upgrade.
type Phase int

const (
	// PhaseFetch starts once preconditions hold and the download begins.
	PhaseFetch Phase = iota + 1
	// PhaseCompile starts before the build tool runs.
	PhaseCompile
)

// Options modifies Install and Upgrade.
type Options struct {
	// Compile builds a native binary with the build tool instead of
	// deploying source.
	Compile bool
	// Progress, if set, is called as each Phase begins.
	Progress func(Phase)
}

func (o Options) report(p Phase) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// Result describes what an operation did.
type Result struct {
	Name   string
	Status Status
	// Path is the entry path in the install root.
	Path  string
	Shape Shape
	// SidecarRemoved is set when a "<name>_files" directory was deleted,
	// either by Remove or by an upgrade that changed shape.
	SidecarRemoved bool
}
