package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/pget/internal/build"
	"github.com/ZebulonRouseFrantzich/pget/internal/lifecycle"
)

func (a *app) newInstallCmd() *cobra.Command {
	var compile bool
	cmd := &cobra.Command{
		Use:   "install <name>",
		Short: "Install an application",
		Long: `Install downloads the application's archive and deploys it into the
install root. An application that is already installed is left untouched.`,
		Args: requireName("install"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.deploy(cmd, args[0], compile, false)
		},
	}
	cmd.Flags().BoolVarP(&compile, "compile", "c", false, "build a native binary with Bazel")
	return cmd
}

func (a *app) newUpgradeCmd() *cobra.Command {
	var compile bool
	cmd := &cobra.Command{
		Use:   "upgrade <name>",
		Short: "Upgrade an installed application",
		Long: `Upgrade replaces an installed application with the latest archive.
The files directory of a multi-file application is replaced, never merged.`,
		Args: requireName("upgrade"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.deploy(cmd, args[0], compile, true)
		},
	}
	cmd.Flags().BoolVarP(&compile, "compile", "c", false, "build a native binary with Bazel")
	return cmd
}

func (a *app) deploy(cmd *cobra.Command, name string, compile, upgrade bool) error {
	mgr, err := a.manager(cmd)
	if err != nil {
		return err
	}

	verb := "Installing"
	if upgrade {
		verb = "Upgrading"
	}
	opts := lifecycle.Options{
		Compile: compile,
		Progress: func(p lifecycle.Phase) {
			switch p {
			case lifecycle.PhaseFetch:
				a.printer.Progress(verb, name)
			case lifecycle.PhaseCompile:
				a.printer.Compiling(name, build.DisplayName)
			}
		},
	}

	var res *lifecycle.Result
	if upgrade {
		res, err = mgr.Upgrade(cmd.Context(), name, opts)
	} else {
		res, err = mgr.Install(cmd.Context(), name, opts)
	}
	if err != nil {
		return a.reportDeployError(name, err)
	}

	if res.Status == lifecycle.StatusAlreadyInstalled {
		a.printer.AlreadyInstalled(name, res.Path)
		return nil
	}
	a.printer.Deployed(name, res.Path, res.Shape == lifecycle.ShapeCompiled, upgrade)
	return nil
}

// reportDeployError prints the message for failures with a fixed wording
// and marks them reported. Other errors are returned as is.
func (a *app) reportDeployError(name string, err error) error {
	var buildErr *build.BuildError
	switch {
	case errors.Is(err, lifecycle.ErrNotInstalled):
		a.printer.NotInstalled(name)
	case errors.Is(err, lifecycle.ErrNoCandidate):
		a.printer.NoCandidate(name)
	case errors.As(err, &buildErr):
		diagnostics := buildErr.Output
		if diagnostics == "" {
			diagnostics = buildErr.Error()
		}
		a.printer.CompileFailed(name, build.DisplayName, diagnostics)
	default:
		return err
	}
	return &reportedError{err: err}
}
