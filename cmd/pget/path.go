package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/pget/internal/logging"
	"github.com/ZebulonRouseFrantzich/pget/internal/shell"
)

func (a *app) newPathCmd() *cobra.Command {
	var shellName string
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show how to add the install root to PATH",
		Long: `Path prints the line that puts the install root on PATH for your
shell, and the startup file it belongs in. pget never edits that file.

The shell is detected from $SHELL or the parent process unless --shell is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			sh := shell.Parse(shellName)
			if shellName == "" {
				result := a.shellDetector.Detect(cmd.Context())
				sh = result.Shell
				logger := logging.GetLogger("shell")
				logger.Debug().Str("shell", sh.String()).Str("method", result.Method).Msg("Detected shell")
			}
			if !sh.IsValid() {
				if shellName == "" {
					shellName = sh.String()
				}
				return &shell.UnsupportedShellError{Shell: shellName}
			}

			hint, err := shell.NewHint(sh, cfg.InstallRoot)
			if err != nil {
				return err
			}
			if hint.OnPath {
				a.printer.Info("%s is already on your PATH.", cfg.InstallRoot)
				return nil
			}
			a.printer.Info("Add %s to your PATH by adding this line to %s:", cfg.InstallRoot, hint.RCFile)
			a.printer.Info("  %s", hint.Command)
			return nil
		},
	}
	cmd.Flags().StringVar(&shellName, "shell", "", fmt.Sprintf("shell to print for %v", shell.SupportedShells()))
	_ = cmd.RegisterFlagCompletionFunc("shell", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(shell.SupportedShells()))
		for _, s := range shell.SupportedShells() {
			names = append(names, s.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
