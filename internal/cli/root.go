// Package cli is the transducer command line.
package cli

import (
	"github.com/amp-labs/amp-transducer/logger"
	"github.com/spf13/cobra"
)

const appName = "transducer"

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	// Config is a runner YAML file. Empty means RUNNER_* environment variables.
	Config string
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Drive a command-driven state machine from the terminal",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger.ConfigureLogging(cmd.Context(), appName, func(o *logger.Options) {
				o.Output = cmd.ErrOrStderr()
			})
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "runner config file (YAML)")

	cmd.AddCommand(NewCountCommand(opts))

	return cmd
}
