package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teleimage/internal/analytics"
)

func newAnalyticsCmd() *cobra.Command {
	var (
		top   int
		day   string
		daily bool
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print per-user analytics from the activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			journal, err := e.openJournal(cmd.Context())
			if err != nil {
				return err
			}
			defer journal.Close()

			records, err := journal.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			if daily || day != "" {
				target := time.Now().UTC()
				if day != "" {
					if target, err = time.Parse("2006-01-02", day); err != nil {
						return fmt.Errorf("invalid --day: %w", err)
					}
				}
				stats := analytics.AnalyzeDailyLogs(records, target)
				fmt.Fprintln(cmd.OutOrStdout(), stats.GenerateReportSummary())
				return nil
			}

			overview := analytics.Summarize(records)
			if top > 0 && len(overview.Users) > top {
				overview.Users = overview.Users[:top]
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(overview)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "only print the N most active users")
	cmd.Flags().BoolVar(&daily, "daily", false, "print today's (UTC) report instead of the overview")
	cmd.Flags().StringVar(&day, "day", "", "print the report for this UTC day (YYYY-MM-DD)")
	return cmd
}
