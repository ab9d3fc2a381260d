// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitbadges",
	Short: "A CLI tool to render GitHub profile statistics as SVG badges.",
	Long: `gitbadges fetches a user's aggregate GitHub statistics (stars, forks,
contributions, lines changed, traffic views, language usage) and renders
them into two static SVG badges suitable for embedding in a profile page.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
