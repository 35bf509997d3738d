// Package cli implements the runbar commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "runbar",
	Short: "Run package scripts from the menu bar",
	Long: `runbar lists the Node projects under a folder in the status bar and
starts or stops their package scripts with one click.

Without a subcommand, runbar starts the status-bar app.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTray,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(trayCmd)
	rootCmd.AddCommand(versionCmd)
}
