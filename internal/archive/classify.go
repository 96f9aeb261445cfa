// Package archive unpacks application archives and decides how the contained
// package is deployed.
//
// A package whose app/ directory holds nothing but main.py is a single-file
// package and is installed as one script. Anything else is a multi-file
// package whose whole tree is copied next to a launcher.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EntrypointFile is the conventional single entrypoint filename.
const EntrypointFile = "main.py"

// Kind classifies an extracted package.
type Kind int

const (
	// KindInvalid means the package subtree is missing.
	KindInvalid Kind = iota
	// KindSingleFile is a package consisting only of the entrypoint file.
	KindSingleFile
	// KindMultiFile is any other package layout.
	KindMultiFile
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindSingleFile:
		return "single-file"
	case KindMultiFile:
		return "multi-file"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Package is the classification result.
type Package struct {
	Kind Kind
	// Content holds the entrypoint text for KindSingleFile.
	Content string
	// Dir is the package subtree for KindMultiFile.
	Dir string
}

// Classify inspects an extracted package subtree. It only reads.
//
// A missing subtree is reported as KindInvalid with a nil error. Multi-file
// packages are not checked for an entrypoint; a missing one surfaces when the
// launcher runs.
func Classify(packageDir string) (Package, error) {
	info, err := os.Stat(packageDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Package{Kind: KindInvalid}, nil
		}
		return Package{}, fmt.Errorf("stat package dir: %w", err)
	}
	if !info.IsDir() {
		return Package{Kind: KindInvalid}, nil
	}

	entries, err := os.ReadDir(packageDir)
	if err != nil {
		return Package{}, fmt.Errorf("read package dir: %w", err)
	}

	if len(entries) == 1 && entries[0].Name() == EntrypointFile && entries[0].Type().IsRegular() {
		content, err := os.ReadFile(filepath.Join(packageDir, EntrypointFile))
		if err != nil {
			return Package{}, fmt.Errorf("read entrypoint: %w", err)
		}
		return Package{Kind: KindSingleFile, Content: string(content)}, nil
	}

	return Package{Kind: KindMultiFile, Dir: packageDir}, nil
}
