package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"InsiderSentinel/internal/scheduler"
	"InsiderSentinel/internal/server"
	"InsiderSentinel/internal/store"
)

func addServeCommand(rootCmd *cobra.Command, app *App) {
	var noSchedule bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the trade store and run the daily schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}

			st, err := store.New(cfg.Store.DataFile, app.Logger)
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			engine := server.NewEngine(app.Logger,
				&server.HealthHandler{},
				&server.TradeHandler{
					Store:           st,
					APIKey:          cfg.Dashboard.APIKey,
					DisplayMinValue: cfg.Dashboard.DisplayMinValue,
					Logger:          app.Logger,
				})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !noSchedule {
				up := app.uploader()
				sched := scheduler.NewScheduler(ctx, app.pipeline(true), up, app.Logger)
				if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.CleanupCron); err != nil {
					return fmt.Errorf("register cron tasks: %w", err)
				}
				sched.Start()
				defer sched.Stop()

				if cfg.Schedule.RunOnStart {
					app.Logger.Info("run_on_start enabled, executing daily task now")
					go sched.RunDailyNow()
				}
			}

			app.Logger.Info("InsiderSentinel is running",
				zap.String("store", st.Path()), zap.Bool("schedule", !noSchedule))
			err = server.New(cfg.Dashboard.ListenAddr, engine, app.Logger).Run(ctx)
			app.Logger.Info("InsiderSentinel stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the store without the cron ingestion")
	rootCmd.AddCommand(cmd)
}
