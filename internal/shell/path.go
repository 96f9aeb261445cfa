package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OnPath reports whether dir is one of the entries of pathList, a value in
// the format of $PATH.
func OnPath(dir, pathList string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathList) {
		if entry == "" {
			continue
		}
		if filepath.Clean(entry) == want {
			return true
		}
	}
	return false
}

// PathCommand returns the line that prepends dir to PATH in shell.
func PathCommand(shell ShellType, dir string) (string, error) {
	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`export PATH="%s:$PATH"`, escapeDouble(dir)), nil
	case ShellFish:
		return fmt.Sprintf("fish_add_path %s", quoteSingle(dir)), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// RCFile returns the startup file PathCommand belongs in, relative to home.
// zsh honours $ZDOTDIR when getenv reports it.
func RCFile(shell ShellType, home string, getenv func(string) string) (string, error) {
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc"), nil
	case ShellZsh:
		if getenv != nil {
			if zdot := getenv("ZDOTDIR"); zdot != "" {
				return filepath.Join(zdot, ".zshrc"), nil
			}
		}
		return filepath.Join(home, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// Hint describes how to put an install root on PATH.
type Hint struct {
	Shell   ShellType
	OnPath  bool
	Command string
	RCFile  string
}

// NewHint builds the PATH hint for dir using the process environment.
func NewHint(shell ShellType, dir string) (*Hint, error) {
	cmd, err := PathCommand(shell, dir)
	if err != nil {
		return nil, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	rc, err := RCFile(shell, home, os.Getenv)
	if err != nil {
		return nil, err
	}
	return &Hint{
		Shell:   shell,
		OnPath:  OnPath(dir, os.Getenv("PATH")),
		Command: cmd,
		RCFile:  rc,
	}, nil
}

func escapeDouble(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return r.Replace(s)
}

func quoteSingle(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
