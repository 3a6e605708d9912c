package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"InsiderSentinel/internal/pipeline"
)

func addRunCommand(rootCmd *cobra.Command, app *App) {
	var (
		date     string
		noUpload bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest one day of filings",
		Long: `Fetch the daily index, parse every listed filing, upload the kept trades
and print the aggregate report. The target date defaults to the most recent
weekday before today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noUpload {
				if err := app.Config.ValidateSettings(); err != nil {
					return fmt.Errorf("config validation: %w", err)
				}
			} else if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}

			opts := pipeline.Options{Upload: !noUpload, Trigger: pipeline.TriggerCLI}
			if date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				opts.Date = d
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err := app.pipeline(opts.Upload).Run(ctx, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "target date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "skip the upload to the trade store")
	rootCmd.AddCommand(cmd)
}
