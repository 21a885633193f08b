package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"life-planner/internal/service"
)

func newBroadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "broadcast <morning|night|weekly>",
		Short:     "Send one scheduled broadcast to every linked user and exit",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{service.BroadcastMorning, service.BroadcastNight, service.BroadcastWeekly},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.broadcasts.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
