package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/interco/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "icctl",
	Short:         "Operational helpers for the intercompany ledger service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*app.Config, error) {
	return app.LoadConfig()
}
