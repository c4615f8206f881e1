package main

import (
	"github.com/spf13/cobra"

	"unjam/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run the unjam daemon in the foreground",
		Annotations:  map[string]string{"skipConfigLoad": "true"},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var configPath string
			if ctx.configFlag != nil {
				configPath = *ctx.configFlag
			}
			return daemonrun.Run(cmd.Context(), daemonrun.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
				Console:    true,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}
