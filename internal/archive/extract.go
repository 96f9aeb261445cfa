package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PackageSubdir is the directory inside the repository holding the application.
	PackageSubdir = "app"

	defaultFileMode = 0o644
	dirPerm         = 0o755
)

// Extractor unpacks zip archives.
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractZip unpacks a zip archive held in memory into destDir.
func (e *Extractor) ExtractZip(data []byte, destDir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}

	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	cleanDest := filepath.Clean(destDir) + string(os.PathSeparator)

	for _, file := range reader.File {
		target := filepath.Join(destDir, filepath.FromSlash(file.Name))

		// Security check: prevent path traversal
		if !strings.HasPrefix(target+string(os.PathSeparator), cleanDest) {
			return fmt.Errorf("illegal file path: %s", file.Name)
		}

		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, dirPerm); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case mode&os.ModeSymlink != 0:
			// Skip symlinks; they could point outside the scratch area.
			continue

		default:
			if err := extractFile(file, target); err != nil {
				return err
			}
		}
	}

	return nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	perm := file.Mode().Perm()
	if perm == 0 {
		perm = defaultFileMode
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", target, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", target, err)
	}

	return out.Close()
}

// RepoRoot returns the directory GitHub branch archives unpack into. GitHub
// replaces slashes in the branch name with dashes.
func RepoRoot(scratch, name, branch string) string {
	return filepath.Join(scratch, name+"-"+strings.ReplaceAll(branch, "/", "-"))
}

// PackageDir returns the application subtree for an extracted repository.
func PackageDir(repoRoot string) string {
	return filepath.Join(repoRoot, PackageSubdir)
}
