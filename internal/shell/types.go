package shell

import "fmt"

// ShellType represents a supported shell
type ShellType string

const (
	ShellBash    ShellType = "bash"
	ShellZsh     ShellType = "zsh"
	ShellFish    ShellType = "fish"
	ShellUnknown ShellType = "unknown"
)

// String returns the string representation of the shell type
func (s ShellType) String() string {
	return string(s)
}

// IsValid returns true if the shell type is supported
func (s ShellType) IsValid() bool {
	switch s {
	case ShellBash, ShellZsh, ShellFish:
		return true
	default:
		return false
	}
}

// Parse returns the shell named by name, which may be a path to a shell
// binary or a login-shell name such as "-zsh".
func Parse(name string) ShellType {
	s := ShellType(normalizeName(name))
	if s.IsValid() {
		return s
	}
	return ShellUnknown
}

// SupportedShells returns the shells pget can print PATH setup for.
func SupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}

// DetectionResult contains the result of shell detection
type DetectionResult struct {
	Shell ShellType
	// Method describes how the shell was detected
	Method string
	// ShellPath is the filesystem path to the shell binary, when known
	ShellPath string
	// Confidence is high, medium or none
	Confidence string
}

// UnsupportedShellError represents an unsupported shell error
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("unsupported shell: %s (supported: bash, zsh, fish)", e.Shell)
}
