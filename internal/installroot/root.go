// Package installroot resolves the directory that holds installed
// applications and answers questions about what is installed in it.
//
// An application is "installed" purely by file presence: an executable file
// named after the application, optionally accompanied by a sibling
// "<name>_files" directory for multi-file packages. No manifest is kept.
package installroot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// SidecarSuffix is appended to an application name to form its files directory.
	SidecarSuffix = "_files"

	// ReservedPrefix marks bookkeeping entries (lock file, staging dirs) that
	// are never reported as installed applications.
	ReservedPrefix = ".pget"

	dirPerm = 0o755
)

var (
	// ErrInvalidName is returned for names that would escape the install root.
	ErrInvalidName = errors.New("invalid application name")
	// ErrEntryConflict is returned when a directory, typically another
	// application's files directory, occupies the entry path.
	ErrEntryConflict = errors.New("entry path is occupied by a directory")
)

// Root is an install root directory.
type Root struct {
	dir string
}

// New returns a Root for dir. The directory is not created until Ensure is called.
func New(dir string) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("install root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve install root: %w", err)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the absolute install root path.
func (r *Root) Dir() string {
	return r.dir
}

// Ensure creates the install root if it does not exist.
func (r *Root) Ensure() error {
	if err := os.MkdirAll(r.dir, dirPerm); err != nil {
		return fmt.Errorf("create install root: %w", err)
	}
	return nil
}

// Exists reports whether the install root directory exists.
func (r *Root) Exists() bool {
	info, err := os.Stat(r.dir)
	return err == nil && info.IsDir()
}

// ValidateName rejects names that are empty, relative path elements, or contain
// a path separator. Everything else is used verbatim.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsRune(name, '/'), strings.ContainsRune(name, os.PathSeparator):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, ReservedPrefix):
		return fmt.Errorf("%w: %q uses the reserved %q prefix", ErrInvalidName, name, ReservedPrefix)
	}
	return nil
}

// EntryPath returns the path of the executable entry for name.
func (r *Root) EntryPath(name string) string {
	return filepath.Join(r.dir, name)
}

// SidecarPath returns the path of the files directory for name.
func (r *Root) SidecarPath(name string) string {
	return filepath.Join(r.dir, name+SidecarSuffix)
}

// IsInstalled reports whether an entry exists for name. Any non-directory at
// the entry path counts, whatever its mode. A directory there is never an
// entry; see CheckEntry.
func (r *Root) IsInstalled(name string) (bool, error) {
	info, err := os.Lstat(r.EntryPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat entry: %w", err)
	}
	return !info.IsDir(), nil
}

// CheckEntry returns ErrEntryConflict when a directory sits on the entry
// path for name. Such a directory is left alone.
func (r *Root) CheckEntry(name string) error {
	info, err := os.Lstat(r.EntryPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat entry: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrEntryConflict, r.EntryPath(name))
	}
	return nil
}

// HasSidecar reports whether a files directory exists for name.
func (r *Root) HasSidecar(name string) bool {
	info, err := os.Lstat(r.SidecarPath(name))
	return err == nil && info.IsDir()
}

// Installed returns the names of executable regular files directly under the
// root, sorted lexicographically. A missing root yields an empty list.
func (r *Root) Installed() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read install root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ReservedPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		if IsExecutable(info) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsExecutable reports whether info describes a regular file with any
// executable bit set.
func IsExecutable(info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
