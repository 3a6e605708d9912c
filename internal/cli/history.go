package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"InsiderSentinel/internal/report"
)

func addHistoryCommand(rootCmd *cobra.Command, app *App) {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			runs, err := app.Recorder.RecentRuns(limit)
			if err != nil {
				return fmt.Errorf("load runs: %w", err)
			}
			fmt.Fprint(app.Out, report.FormatHistory(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	rootCmd.AddCommand(cmd)
}
