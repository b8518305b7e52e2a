package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [targets...]",
		Short: "Remove saved state and declared outputs",
		Long: "Remove the saved state and declared outputs of the given targets and their dependencies.\n" +
			"Without targets, every target and work directory of the loaded projects is cleaned.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Clean(cmd.Context(), args)
		},
	}
}
