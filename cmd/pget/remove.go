package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/pget/internal/lifecycle"
)

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove an installed application",
		Args:    requireName("remove"),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd)
			if err != nil {
				return err
			}

			name := args[0]
			res, err := mgr.Remove(cmd.Context(), name)
			if errors.Is(err, lifecycle.ErrInvalidName) {
				// Such a name can never be installed, so there is nothing to remove.
				a.printer.RemoveMissing(name)
				return nil
			}
			if err != nil {
				return err
			}
			if res.Status == lifecycle.StatusNotInstalled {
				a.printer.RemoveMissing(name)
				return nil
			}
			a.printer.Removed(name, res.SidecarRemoved)
			return nil
		},
	}
}
