package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "properly-cli",
	Short: "Properly CLI tool",
	Long: `Properly CLI is a command-line interface for operating the Properly messaging service.

Available commands:
  topics     Explore the pub/sub topics messages are broadcast on
  orphans    List attachment records no message references
  version    Print the CLI version

Use "properly-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
