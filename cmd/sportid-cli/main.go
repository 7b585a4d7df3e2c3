// Package main is the entry point for the sportid command-line tool: local
// screenshot extraction and load testing of a running service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/sportid/pkg/logger"
)

// rootCmd is the base command for the sportid CLI.
var rootCmd = &cobra.Command{
	Use:   "sportid-cli",
	Short: "Tools for the sportid activity service",
	Long: `sportid-cli extracts activity fields from screenshot text without a
server and drives a running sportid service with generated load.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		if err := logger.InitWithOptions(logger.WithFormat(format), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		return logger.SetLevelString(level)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
