package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"InsiderSentinel/internal/model"
)

// DefaultUserAgent is used when no contact string is configured. The archive
// asks every client to identify itself, so startup warns when it is in use.
const DefaultUserAgent = "InsiderSentinel (Your Name; your.email@example.com)"

// Config holds all application configuration.
type Config struct {
	SEC struct {
		BaseURL         string        `yaml:"base_url"`
		UserAgent       string        `yaml:"user_agent"`
		FormType        string        `yaml:"form_type"`
		IndexTimeout    time.Duration `yaml:"index_timeout"`
		FilingTimeout   time.Duration `yaml:"filing_timeout"`
		RequestInterval time.Duration `yaml:"request_interval"`
		Workers         int           `yaml:"workers"`
	} `yaml:"sec"`
	Filter struct {
		TargetCodes        []string `yaml:"target_codes"`
		ValueCodes         []string `yaml:"value_codes"`
		MinTradeValue      float64  `yaml:"min_trade_value"`
		MegaTradeThreshold float64  `yaml:"mega_trade_threshold"`
	} `yaml:"filter"`
	Dashboard struct {
		APIKey          string        `yaml:"api_key"`
		URL             string        `yaml:"url"`
		ListenAddr      string        `yaml:"listen_addr"`
		DisplayMinValue float64       `yaml:"display_min_value"`
		UploadTimeout   time.Duration `yaml:"upload_timeout"`
		RetryMaxElapsed time.Duration `yaml:"retry_max_elapsed"`
	} `yaml:"dashboard"`
	Store struct {
		DataFile string `yaml:"data_file"`
	} `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron   string `yaml:"daily_cron"`
		CleanupCron string `yaml:"cleanup_cron"` // empty disables
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Log   LogConfig `yaml:"log"`
	Proxy string    `yaml:"proxy"`
}

// LogConfig controls the process logger. File is optional; when set, log
// lines are also written there as JSON and rotated by size.
type LogConfig struct {
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"` // console or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SEC_BASE_URL"); v != "" {
		c.SEC.BaseURL = v
	}
	if v := os.Getenv("SEC_USER_AGENT"); v != "" {
		c.SEC.UserAgent = v
	}
	if v := os.Getenv("SEC_WORKERS"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			c.SEC.Workers = n
		}
	}
	if v := os.Getenv("DASHBOARD_API_KEY"); v != "" {
		c.Dashboard.APIKey = v
	} else if v := os.Getenv("DASHBOARD_PRIVATE_KEY"); v != "" {
		c.Dashboard.APIKey = v
	}
	if v := os.Getenv("DASHBOARD_URL"); v != "" {
		c.Dashboard.URL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Dashboard.ListenAddr = v
	}
	if v := os.Getenv("MIN_TRADE_VALUE"); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			c.Filter.MinTradeValue = f
		}
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		c.Store.DataFile = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_CLEANUP"); v != "" {
		c.Schedule.CleanupCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v == "true" || v == "1" {
		c.Schedule.RunOnStart = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.SEC.BaseURL == "" {
		c.SEC.BaseURL = "https://www.sec.gov"
	}
	if c.SEC.UserAgent == "" {
		c.SEC.UserAgent = DefaultUserAgent
	}
	if c.SEC.FormType == "" {
		c.SEC.FormType = "4"
	}
	if c.SEC.IndexTimeout == 0 {
		c.SEC.IndexTimeout = 30 * time.Second
	}
	if c.SEC.FilingTimeout == 0 {
		c.SEC.FilingTimeout = 15 * time.Second
	}
	if c.SEC.RequestInterval == 0 {
		c.SEC.RequestInterval = 150 * time.Millisecond
	}
	if c.SEC.Workers == 0 {
		c.SEC.Workers = 1
	}
	if len(c.Filter.TargetCodes) == 0 {
		c.Filter.TargetCodes = []string{"P", "S", "M", "X", "V"}
	}
	if len(c.Filter.ValueCodes) == 0 {
		c.Filter.ValueCodes = []string{"P", "S"}
	}
	if c.Filter.MinTradeValue == 0 {
		c.Filter.MinTradeValue = 1_000_000
	}
	if c.Filter.MegaTradeThreshold == 0 {
		c.Filter.MegaTradeThreshold = 10_000_000
	}
	if c.Dashboard.URL == "" {
		c.Dashboard.URL = "http://127.0.0.1:8000"
	}
	if c.Dashboard.ListenAddr == "" {
		c.Dashboard.ListenAddr = ":8000"
	}
	if c.Dashboard.DisplayMinValue == 0 {
		c.Dashboard.DisplayMinValue = 100_000
	}
	if c.Dashboard.UploadTimeout == 0 {
		c.Dashboard.UploadTimeout = 10 * time.Second
	}
	if c.Dashboard.RetryMaxElapsed == 0 {
		c.Dashboard.RetryMaxElapsed = 2 * time.Minute
	}
	if c.Store.DataFile == "" {
		c.Store.DataFile = "data/insider_trades.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/insider_sentinel.db"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 6 * * 2-6"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "console"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
}

// Validate checks that all required fields are set, the dashboard key
// included.
func (c *Config) Validate() error {
	if c.Dashboard.APIKey == "" {
		return fmt.Errorf("dashboard.api_key is required (set DASHBOARD_API_KEY or DASHBOARD_PRIVATE_KEY)")
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything except credentials, for commands that
// never talk to the dashboard.
func (c *Config) ValidateSettings() error {
	if c.SEC.Workers < 1 {
		return fmt.Errorf("sec.workers must be at least 1")
	}
	if c.SEC.RequestInterval < 0 {
		return fmt.Errorf("sec.request_interval must not be negative")
	}
	if c.Filter.MinTradeValue < 0 || c.Filter.MegaTradeThreshold < 0 || c.Dashboard.DisplayMinValue < 0 {
		return fmt.Errorf("trade value thresholds must not be negative")
	}
	if len(c.Filter.TargetCodes) == 0 {
		return fmt.Errorf("filter.target_codes must not be empty")
	}
	targets := normalizeCodes(c.Filter.TargetCodes)
	for _, code := range normalizeCodes(c.Filter.ValueCodes) {
		if !slices.Contains(targets, code) {
			return fmt.Errorf("filter.value_codes: %q is not a target code", code)
		}
	}
	return nil
}

// Rules builds the immutable filter set handed to the pipeline.
func (c *Config) Rules() model.Rules {
	return model.NewRules(c.SEC.FormType, c.Filter.TargetCodes, c.Filter.ValueCodes,
		c.Filter.MinTradeValue, c.Filter.MegaTradeThreshold)
}

// UploadURL is the store endpoint receiving trade batches.
func (c *Config) UploadURL() string {
	return strings.TrimRight(c.Dashboard.URL, "/") + "/api/upload_trades"
}

// CleanupURL is the store endpoint that deduplicates the trade file.
func (c *Config) CleanupURL() string {
	return strings.TrimRight(c.Dashboard.URL, "/") + "/api/clean_data"
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, strings.ToUpper(strings.TrimSpace(c)))
	}
	return out
}
