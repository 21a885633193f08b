package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one reminder tick and exit",
		Long:  "Scans for reminders due within the lookahead window and delivers them. Meant for an external cron trigger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if dryRun {
				res, _, err := a.job.Due(cmd.Context())
				if err != nil {
					return err
				}
				out := make([]map[string]any, 0, len(res.Due))
				for _, d := range res.Due {
					out = append(out, map[string]any{
						"reminder_id": d.Reminder.ID,
						"task_id":     d.Task.ID,
						"chat_id":     d.ChatID,
						"title":       d.Task.Title,
						"remind_at":   d.Reminder.RemindAt,
					})
				}
				return enc.Encode(out)
			}

			report, err := a.job.Tick(cmd.Context())
			if err != nil {
				return err
			}
			return enc.Encode(report)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List due reminders without sending them.")
	return cmd
}
