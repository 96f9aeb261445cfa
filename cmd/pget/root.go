package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/pget/internal/build"
	"github.com/ZebulonRouseFrantzich/pget/internal/config"
	"github.com/ZebulonRouseFrantzich/pget/internal/fetch"
	"github.com/ZebulonRouseFrantzich/pget/internal/lifecycle"
	"github.com/ZebulonRouseFrantzich/pget/internal/logging"
	"github.com/ZebulonRouseFrantzich/pget/internal/platform"
	"github.com/ZebulonRouseFrantzich/pget/internal/shell"
	"github.com/ZebulonRouseFrantzich/pget/internal/ui"
)

// deps are the process-level collaborators; tests replace them.
type deps struct {
	out, errOut   io.Writer
	detector      platform.Detector
	shellDetector *shell.Detector
	newFetcher    func(cfg *config.Config, logger zerolog.Logger) fetch.Fetcher
	newTool       func(cfg *config.Config, logger zerolog.Logger) build.NewToolFunc
}

func defaultDeps() deps {
	return deps{
		out:           os.Stdout,
		errOut:        os.Stderr,
		detector:      platform.NewDetector(),
		shellDetector: shell.NewDetector(),
		newFetcher: func(cfg *config.Config, logger zerolog.Logger) fetch.Fetcher {
			return fetch.NewGitHubFetcher(fetch.Options{
				Owner:   cfg.Owner,
				Branch:  cfg.Branch,
				Retries: cfg.Retries,
				Logger:  logger,
			})
		},
		newTool: func(cfg *config.Config, logger zerolog.Logger) build.NewToolFunc {
			return build.BazelFactory(cfg.BuildTool, logger)
		},
	}
}

// reportedError wraps a failure the user has already been told about.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

type app struct {
	deps
	printer   *ui.Printer
	verbosity int
	cfgFile   string
	closeLog  func() error
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, d deps) int {
	a := &app{deps: d, printer: ui.NewPrinter(d.out, d.errOut)}
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if a.closeLog != nil {
		_ = a.closeLog()
	}
	if err == nil {
		return 0
	}

	var reported *reportedError
	if !errors.As(err, &reported) {
		a.printer.Error("%s", config.FormatError(err, a.verbosity > 0))
	}
	return 1
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pget",
		Short: "A minimal package manager for pynosaur applications",
		Long: `pget installs applications published as GitHub repositories into
~/.pget/bin. Pure Python packages are deployed as scripts; with --compile
a native binary is built with Bazel instead.`,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.closeLog = logging.SetupLogger(a.verbosity, a.errOut)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/pget/config.lua)")
	flags.String("root", "", "install root (default is ~/.pget/bin)")
	flags.String("owner", "", "GitHub account applications are fetched from (default is pynosaur)")
	flags.String("branch", "", "branch whose archive is installed (default is main)")

	root.AddCommand(
		a.newInstallCmd(),
		a.newUpgradeCmd(),
		a.newRemoveCmd(),
		a.newListCmd(),
		a.newPathCmd(),
		a.newVersionCmd(),
		newCompletionCmd(),
	)
	return root
}

// loadConfig resolves configuration for cmd, including its changed flags.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), config.Options{
		File:     a.cfgFile,
		Flags:    cmd.Flags(),
		Detector: a.detector,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("config", cfg.File).
		Str("root", cfg.InstallRoot).
		Str("owner", cfg.Owner).
		Str("branch", cfg.Branch).
		Msg("Configuration loaded")
	return cfg, nil
}

// manager builds a lifecycle.Manager from the resolved configuration.
func (a *app) manager(cmd *cobra.Command) (*lifecycle.Manager, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	buildLogger := logging.GetLogger("build")
	return lifecycle.NewManager(lifecycle.Config{
		Root:         cfg.InstallRoot,
		Fetcher:      a.newFetcher(cfg, logging.GetLogger("fetch")),
		Driver:       build.NewDriver(a.newTool(cfg, buildLogger), buildLogger),
		Branch:       cfg.Branch,
		FetchTimeout: cfg.FetchTimeout,
		BuildTimeout: cfg.BuildTimeout,
		Logger:       logging.GetLogger("lifecycle"),
	})
}

// requireName accepts exactly one application name.
func requireName(command string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("Application name required for %s command.", command)
		}
		return cobra.ExactArgs(1)(cmd, args)
	}
}
