package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lifeplanner",
		Short:        "Telegram reminders, check-ins and account linking for the life planner",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error (overrides LOG_LEVEL).")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newBroadcastCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}
