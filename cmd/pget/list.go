package main

import (
	"github.com/spf13/cobra"
)

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed applications",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}
			names, err := mgr.List()
			if err != nil {
				return err
			}
			a.printer.Installed(names)
			return nil
		},
	}
}
