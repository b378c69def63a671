package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"pairhunter/internal/analyzer"
	"pairhunter/internal/hedge"
	"pairhunter/internal/position"
	"pairhunter/internal/provider"
	"pairhunter/internal/scanner"
	"pairhunter/internal/strategy"
	"pairhunter/pkg/logger"
)

// Config represents the application configuration. It is resolved once at
// startup and passed down by value; nothing re-reads it mid-run.
type Config struct {
	API       APIConfig            `yaml:"api"`
	Data      DataConfig           `yaml:"data"`
	Fetch     provider.RetryConfig `yaml:"fetch"`
	Scanner   ScannerConfig        `yaml:"scanner"`
	Screening analyzer.Config      `yaml:"screening"`
	Hedge     HedgeConfig          `yaml:"hedge"`
	Signal    strategy.Thresholds  `yaml:"signal"`
	Sizing    position.Config      `yaml:"sizing"`
	Log       logger.Config        `yaml:"log"`
	Server    ServerConfig         `yaml:"server"`
	Watch     WatchConfig          `yaml:"watch"`
}

// APIConfig holds API provider configurations
type APIConfig struct {
	Finnhub      ProviderConfig `yaml:"finnhub"`
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Yahoo        YahooConfig    `yaml:"yahoo"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
}

// YahooConfig toggles the keyless Yahoo source
type YahooConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DataConfig points at local price history
type DataConfig struct {
	CSVGlob    string `yaml:"csv_glob"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ScannerConfig holds orchestrator settings
type ScannerConfig struct {
	Workers          int `yaml:"workers"`           // pair analysis goroutines
	FetchConcurrency int `yaml:"fetch_concurrency"` // symbols fetched in parallel
}

// HedgeConfig selects and tunes the hedge ratio estimator
type HedgeConfig struct {
	Method       string `yaml:"method"`
	hedge.Config `yaml:",inline"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"` // empty disables auth
	AllowedOrigins []string      `yaml:"allowed_origins"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// WatchConfig holds scheduled screening settings
type WatchConfig struct {
	Schedule  string   `yaml:"schedule"` // standard 5-field cron
	Timezone  string   `yaml:"timezone"`
	OutputDir string   `yaml:"output_dir"`
	Format    string   `yaml:"format"` // json, yaml or msgpack
	Universes []string `yaml:"universes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Finnhub:      ProviderConfig{RateLimit: 60},
			AlphaVantage: ProviderConfig{RateLimit: 5},
			Yahoo:        YahooConfig{Enabled: true},
		},
		Fetch: provider.DefaultRetryConfig(),
		Scanner: ScannerConfig{
			Workers:          8,
			FetchConcurrency: 4,
		},
		Screening: analyzer.DefaultConfig(),
		Hedge: HedgeConfig{
			Method: hedge.MethodOLS,
			Config: hedge.DefaultConfig(),
		},
		Signal: strategy.DefaultThresholds(),
		Sizing: position.DefaultConfig(),
		Log: logger.Config{
			Level:  "info",
			Pretty: true,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			CacheTTL:       time.Hour,
		},
		Watch: WatchConfig{
			Schedule:  "30 16 * * MON-FRI",
			Timezone:  "America/New_York",
			OutputDir: "reports",
			Format:    "json",
			Universes: []string{"technology", "financials", "energy"},
		},
	}
}

// Load resolves defaults, then .env, then the YAML file, then environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and deployment knobs from the environment
func (c *Config) applyEnv() error {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		c.API.Finnhub.Key = key
	}
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		c.API.AlphaVantage.Key = key
	}
	if v := os.Getenv("PAIRHUNTER_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("PAIRHUNTER_SQLITE_PATH"); v != "" {
		c.Data.SQLitePath = v
	}
	if v := os.Getenv("PAIRHUNTER_CSV_GLOB"); v != "" {
		c.Data.CSVGlob = v
	}
	if v := os.Getenv("PAIRHUNTER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PAIRHUNTER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAIRHUNTER_WORKERS: %w", err)
		}
		c.Scanner.Workers = n
	}
	return nil
}

// Sources maps the API and data sections onto provider selection
func (c *Config) Sources() provider.Sources {
	return provider.Sources{
		FinnhubKey:       c.API.Finnhub.Key,
		FinnhubRate:      c.API.Finnhub.RateLimit,
		AlphaVantageKey:  c.API.AlphaVantage.Key,
		AlphaVantageRate: c.API.AlphaVantage.RateLimit,
		Yahoo:            c.API.Yahoo.Enabled,
		CSVGlob:          c.Data.CSVGlob,
		SQLitePath:       c.Data.SQLitePath,
	}
}

// ScannerOptions returns the pipeline settings for one screening run
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		Analyzer:         c.Screening,
		HedgeMethod:      c.Hedge.Method,
		Hedge:            c.Hedge.Config,
		Thresholds:       c.Signal,
		Sizing:           c.Sizing,
		Workers:          c.Scanner.Workers,
		FetchConcurrency: c.Scanner.FetchConcurrency,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	src := c.Sources()
	if src.FinnhubKey == "" && src.AlphaVantageKey == "" && !src.Yahoo && src.CSVGlob == "" && src.SQLitePath == "" {
		return fmt.Errorf("no price source configured: set an API key, enable yahoo, or point data.csv_glob / data.sqlite_path at local history")
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Scanner.FetchConcurrency < 1 {
		return fmt.Errorf("fetch_concurrency must be at least 1")
	}
	if err := c.Fetch.Validate(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := c.Screening.Validate(); err != nil {
		return fmt.Errorf("screening: %w", err)
	}
	if _, err := hedge.Get(c.Hedge.Method, c.Hedge.Config); err != nil {
		return fmt.Errorf("hedge: %w", err)
	}
	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	if c.Signal.MaxHalfLife > float64(c.Screening.Lookback) {
		return fmt.Errorf("signal: max_half_life (%v) exceeds lookback_days (%d)", c.Signal.MaxHalfLife, c.Screening.Lookback)
	}
	if err := c.Sizing.Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log: unknown level %q", c.Log.Level)
	}
	if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
		return fmt.Errorf("watch: schedule %q: %w", c.Watch.Schedule, err)
	}
	if _, err := time.LoadLocation(c.Watch.Timezone); err != nil {
		return fmt.Errorf("watch: timezone: %w", err)
	}
	switch strings.ToLower(c.Watch.Format) {
	case "json", "yaml", "msgpack":
	default:
		return fmt.Errorf("watch: format must be json, yaml or msgpack, got %q", c.Watch.Format)
	}
	return nil
}
