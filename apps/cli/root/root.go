package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the registry admin CLI. Subcommands
// (bootstrap, seed) are attached here.
var rootCmd = &cobra.Command{
	Use:           "swasraya",
	Short:         "Swasraya registry admin CLI",
	Long:          "Administrative utilities for the Swasraya registry (schema bootstrap, reference data seeding).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
