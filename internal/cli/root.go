package cli

import (
	"github.com/spf13/cobra"
)

// Version is the release version injected by main.
var Version string

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "kontakt",
	Short: "Contact management and analytics",
	Long: `Kontakt - contact management with built-in analytics.

Kontakt keeps a contact database behind a small HTTP API: a filterable
contact table, CSV import/export, and grouped analytics over sources,
industries, segments, and regions.`,
	// Default to serve command if no subcommand provided
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runServe()
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string) error {
	Version = version
	RootCmd.Version = version
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(contactCmd)
	RootCmd.AddCommand(healthcheckCmd)
	RootCmd.AddCommand(doctorCmd)
}
