// Package cli provides the sentinel command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"InsiderSentinel/internal/collector"
	"InsiderSentinel/internal/config"
	"InsiderSentinel/internal/logger"
	"InsiderSentinel/internal/pipeline"
	"InsiderSentinel/internal/recorder"
	"InsiderSentinel/internal/uploader"
)

// App holds the application dependencies shared by every command.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Recorder recorder.Recorder
	Out      io.Writer

	configPath string
	debug      bool
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Execute runs the CLI with os.Args.
func Execute() error {
	app := &App{}
	defer app.close()
	return NewRootCmd(app).Execute()
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "InsiderSentinel - daily insider trade ingestion",
		Long: `InsiderSentinel reads one day of Form 4 filings from the SEC archive,
keeps the transactions that matter, uploads them to the trade store and
prints an aggregate report.

Use 'sentinel serve' to host the trade store and run the daily schedule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", defaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "enable debug logging")

	addRunCommand(rootCmd, app)
	addServeCommand(rootCmd, app)
	addCleanCommand(rootCmd, app)
	addHistoryCommand(rootCmd, app)
	return rootCmd
}

func (a *App) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}
	a.Config = cfg

	a.Logger, err = logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.SEC.UserAgent == config.DefaultUserAgent {
		a.Logger.Warn("using the placeholder SEC user agent; set sec.user_agent or SEC_USER_AGENT to your contact details")
	}

	a.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, a.Logger)
		if err != nil {
			a.Logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			a.Recorder = sr
		}
	}
	return nil
}

func (a *App) close() {
	if a.Recorder != nil {
		if err := a.Recorder.Close(); err != nil {
			a.Logger.Warn("close recorder", zap.Error(err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

func (a *App) uploader() *uploader.Uploader {
	cfg := a.Config
	return uploader.New(cfg.UploadURL(), cfg.CleanupURL(), cfg.Dashboard.APIKey, cfg.Proxy,
		cfg.Dashboard.UploadTimeout, cfg.Dashboard.RetryMaxElapsed, a.Logger)
}

// pipeline assembles the ingestion stages. One fetcher, and so one rate
// limiter, is shared by the index and filing stages.
func (a *App) pipeline(upload bool) *pipeline.Pipeline {
	cfg := a.Config
	rules := cfg.Rules()
	fetcher := collector.NewHTTPFetcher(cfg.SEC.UserAgent, cfg.Proxy, cfg.SEC.RequestInterval)
	a.Logger.Info("data source", zap.String("fetcher", fetcher.Name()), zap.String("base_url", cfg.SEC.BaseURL))

	col := collector.NewCollector(
		collector.NewIndexFetcher(fetcher, cfg.SEC.BaseURL, rules.FormType(), cfg.SEC.IndexTimeout, a.Logger),
		collector.NewFilingParser(fetcher, rules, cfg.SEC.FilingTimeout, a.Logger),
		cfg.SEC.Workers, a.Logger)

	var up pipeline.Uploader
	if upload {
		up = a.uploader()
	}
	return pipeline.New(col, rules, up, a.Recorder, a.Out, a.Logger)
}
