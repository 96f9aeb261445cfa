package main

import (
	"github.com/spf13/cobra"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.detector.Detect(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.Info("pget version %s", Version)
			a.printer.Info("  commit:   %s", Commit)
			a.printer.Info("  built:    %s", Date)
			a.printer.Info("  platform: %s", info)
			return nil
		},
	}
}
