package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/weft/internal/app"
	"go.trai.ch/weft/internal/engine/scheduler"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [targets...]",
		Short: "Build targets and start their services",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			watch, _ := cmd.Flags().GetBool("watch")
			clean, _ := cmd.Flags().GetBool("clean")
			tty, _ := cmd.Flags().GetBool("tty")
			stopTimeout, _ := cmd.Flags().GetDuration("stop-timeout")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				Watch:       watch,
				Clean:       clean,
				TTY:         tty,
				StopTimeout: stopTimeout,
				Debounce:    debounce,
			})
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Rebuild and restart targets when their inputs change")
	cmd.Flags().Bool("clean", false, "Remove saved state and outputs before building")
	cmd.Flags().Bool("tty", false, "Attach scripts to a pseudo-terminal")
	cmd.Flags().Duration("stop-timeout", scheduler.DefaultStopTimeout, "Grace period before a stopping service is killed")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a file change invalidates targets")
	return cmd
}
