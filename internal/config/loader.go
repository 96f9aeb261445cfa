package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/pget/internal/platform"
)

// Configuration keys shared by every layer.
const (
	KeyInstallRoot  = "install_root"
	KeyOwner        = "owner"
	KeyBranch       = "branch"
	KeyBuildTool    = "build_tool"
	KeyFetchTimeout = "fetch_timeout"
	KeyBuildTimeout = "build_timeout"
	KeyRetries      = "retries"
)

// EnvPrefix is stripped from environment variables, PGET_BRANCH -> branch.
const EnvPrefix = "PGET_"

// EnvConfigFile selects the config file when --config is not given.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Defaults.
const (
	DefaultInstallRoot  = "~/.pget/bin"
	DefaultOwner        = "pynosaur"
	DefaultBranch       = "main"
	DefaultBuildTool    = "bazel"
	DefaultFetchTimeout = 5 * time.Minute
	DefaultBuildTimeout = 30 * time.Minute
	DefaultRetries      = 3
)

var knownKeys = map[string]bool{
	KeyInstallRoot:  true,
	KeyOwner:        true,
	KeyBranch:       true,
	KeyBuildTool:    true,
	KeyFetchTimeout: true,
	KeyBuildTimeout: true,
	KeyRetries:      true,
}

// flagKeys maps flag names that differ from their key.
var flagKeys = map[string]string{
	"root": KeyInstallRoot,
}

// Config is the resolved configuration.
type Config struct {
	InstallRoot  string        `koanf:"install_root"`
	Owner        string        `koanf:"owner"`
	Branch       string        `koanf:"branch"`
	BuildTool    string        `koanf:"build_tool"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	BuildTimeout time.Duration `koanf:"build_timeout"`
	Retries      int           `koanf:"retries"`

	// File is the config file that was loaded, empty if none.
	File string `koanf:"-"`
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.InstallRoot == "":
		return errors.New("install_root must not be empty")
	case c.Owner == "":
		return errors.New("owner must not be empty")
	case c.Branch == "":
		return errors.New("branch must not be empty")
	case c.BuildTool == "":
		return errors.New("build_tool must not be empty")
	case c.FetchTimeout <= 0:
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	case c.BuildTimeout <= 0:
		return fmt.Errorf("build_timeout must be positive, got %s", c.BuildTimeout)
	case c.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	return nil
}

// Options controls Load.
type Options struct {
	// File is an explicit config file. It must exist.
	File string
	// Flags supplies the highest-precedence layer; only changed flags count.
	Flags *pflag.FlagSet
	// Detector feeds the Lua platform table. Nil uses the host.
	Detector platform.Detector
}

// DefaultFile returns the config file consulted when none is named.
func DefaultFile() string {
	return filepath.Join(xdg.ConfigHome, "pget", "config.lua")
}

func defaults() map[string]any {
	return map[string]any{
		KeyInstallRoot:  DefaultInstallRoot,
		KeyOwner:        DefaultOwner,
		KeyBranch:       DefaultBranch,
		KeyBuildTool:    DefaultBuildTool,
		KeyFetchTimeout: DefaultFetchTimeout,
		KeyBuildTimeout: DefaultBuildTimeout,
		KeyRetries:      DefaultRetries,
	}
}

// Load resolves the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(ctx context.Context, opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	file, err := resolveFile(opts.File)
	if err != nil {
		return nil, err
	}
	if file != "" {
		detector := opts.Detector
		if detector == nil {
			detector = platform.NewDetector()
		}
		values, err := NewParser(detector).ParseFile(ctx, file)
		if err != nil {
			return nil, err
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	// 3. Environment: PGET_FETCH_TIMEOUT -> fetch_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if !knownKeys[key] {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if !knownKeys[key] {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = file

	root, err := ExpandPath(cfg.InstallRoot)
	if err != nil {
		return nil, err
	}
	cfg.InstallRoot = root

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// resolveFile picks the config file: explicit path, then $PGET_CONFIG, then
// the XDG default if it exists.
func resolveFile(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigFile)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	path := DefaultFile()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config file %s: %w", path, err)
	}
	return path, nil
}

// ExpandPath expands a leading "~" and makes path absolute.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
