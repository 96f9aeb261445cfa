// Package transaction makes changes to the install root safe to interrupt:
// an exclusive lock keeps two invocations apart, and new content is staged
// in a private directory inside the install root before being renamed into
// place.
package transaction

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StagePrefix names staging directories inside the install root.
const StagePrefix = ".pget-stage-"

const (
	executablePerm = 0o755
	dirPerm        = 0o755
)

// Stage is a scratch directory on the same filesystem as the install root,
// so Promote is an atomic rename.
type Stage struct {
	dir string
}

// NewStage creates a uniquely named staging directory under root.
func NewStage(root string) (*Stage, error) {
	dir := filepath.Join(root, StagePrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Stage{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Stage) Dir() string {
	return s.dir
}

// Path returns the staged location of name.
func (s *Stage) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteExecutable writes content to name with mode 0755.
func (s *Stage) WriteExecutable(name string, content []byte) error {
	path := s.Path(name)
	if err := os.WriteFile(path, content, executablePerm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	// WriteFile is subject to umask
	return os.Chmod(path, executablePerm)
}

// CopyExecutable copies the regular file at src to name with mode 0755.
func (s *Stage) CopyExecutable(name, src string) error {
	if err := copyFile(src, s.Path(name), executablePerm); err != nil {
		return err
	}
	return os.Chmod(s.Path(name), executablePerm)
}

// CopyTree copies the directory tree at src to name, preserving file modes.
// Symlinks are skipped.
func (s *Stage) CopyTree(name, src string) error {
	dest := s.Path(name)
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, dirPerm)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

// Promote renames the staged name to dest, replacing a file at dest.
// A directory at dest must be removed first.
func (s *Stage) Promote(name, dest string) error {
	if err := os.Rename(s.Path(name), dest); err != nil {
		return fmt.Errorf("move %s into place: %w", name, err)
	}
	return nil
}

// Cleanup removes the staging directory and anything left in it.
func (s *Stage) Cleanup() error {
	if err := os.RemoveAll(s.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staging directory: %w", err)
	}
	return nil
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", dest, err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}
