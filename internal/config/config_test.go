package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhunter/internal/hedge"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 730, cfg.Screening.Lookback)
	assert.Equal(t, 2.0, cfg.Signal.Entry)
	assert.Equal(t, hedge.MethodOLS, cfg.Hedge.Method)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Screening, cfg.Screening)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
api:
  yahoo:
    enabled: false
data:
  csv_glob: "data/**/*.csv"
fetch:
  timeout: 10s
  max_retries: 1
  initial_backoff: 200ms
  max_backoff: 2s
screening:
  min_correlation: 0.8
  lookback_days: 500
hedge:
  method: kalman
  delta: 0.001
signal:
  entry_z: 2.5
  stop_z: 3.5
sizing:
  allocation: 25000
server:
  cache_ttl: 15m
watch:
  universes: [energy]
`)

	cfg, err := load(path, "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.API.Yahoo.Enabled)
	assert.Equal(t, "data/**/*.csv", cfg.Data.CSVGlob)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Fetch.InitialBackoff)
	assert.Equal(t, 0.8, cfg.Screening.MinCorrelation)
	assert.Equal(t, 500, cfg.Screening.Lookback)
	assert.Equal(t, 252, cfg.Screening.MinObservations, "untouched keys keep defaults")
	assert.Equal(t, hedge.MethodKalman, cfg.Hedge.Method)
	assert.Equal(t, 0.001, cfg.Hedge.Delta)
	assert.Equal(t, 60, cfg.Hedge.Warmup)
	assert.Equal(t, 2.5, cfg.Signal.Entry)
	assert.Equal(t, 0.0, cfg.Signal.Exit)
	assert.Equal(t, 25000.0, cfg.Sizing.Allocation)
	assert.Equal(t, 15*time.Minute, cfg.Server.CacheTTL)
	assert.Equal(t, []string{"energy"}, cfg.Watch.Universes)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "api:\n  finnhub:\n    key: from-file\n")
	envFile := writeFile(t, dir, ".env", "ALPHAVANTAGE_API_KEY=from-dotenv\nPAIRHUNTER_WORKERS=3\n")

	t.Setenv("FINNHUB_API_KEY", "from-env")
	t.Setenv("PAIRHUNTER_JWT_SECRET", "s3cret")
	// godotenv never overrides variables that are already set
	t.Setenv("ALPHAVANTAGE_API_KEY", "")
	os.Unsetenv("ALPHAVANTAGE_API_KEY")
	t.Setenv("PAIRHUNTER_WORKERS", "")
	os.Unsetenv("PAIRHUNTER_WORKERS")

	cfg, err := load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.API.Finnhub.Key)
	assert.Equal(t, "from-dotenv", cfg.API.AlphaVantage.Key)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
	assert.Equal(t, 3, cfg.Scanner.Workers)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := load(writeFile(t, dir, "bad.yaml", "screening: [unclosed"), "")
	assert.Error(t, err)

	t.Setenv("PAIRHUNTER_WORKERS", "many")
	_, err = load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no sources", func(c *Config) { c.API.Yahoo.Enabled = false }},
		{"no workers", func(c *Config) { c.Scanner.Workers = 0 }},
		{"no fetch concurrency", func(c *Config) { c.Scanner.FetchConcurrency = 0 }},
		{"bad screening", func(c *Config) { c.Screening.MinObservations = 10 }},
		{"unknown hedge method", func(c *Config) { c.Hedge.Method = "lasso" }},
		{"bad thresholds", func(c *Config) { c.Signal.Stop = 1 }},
		{"bad sizing", func(c *Config) { c.Sizing.Allocation = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad schedule", func(c *Config) { c.Watch.Schedule = "every day" }},
		{"bad timezone", func(c *Config) { c.Watch.Timezone = "Mars/Olympus" }},
		{"bad format", func(c *Config) { c.Watch.Format = "xml" }},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.API.Yahoo.Enabled = false
	cfg.Data.SQLitePath = "prices.db"
	assert.NoError(t, cfg.Validate(), "a local source is enough")
}

func TestSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Finnhub.Key = "k"
	cfg.Data.CSVGlob = "*.csv"

	src := cfg.Sources()
	assert.Equal(t, "k", src.FinnhubKey)
	assert.Equal(t, 60, src.FinnhubRate)
	assert.True(t, src.Yahoo)
	assert.Equal(t, "*.csv", src.CSVGlob)
}

func TestScannerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hedge.Method = hedge.MethodKalman
	cfg.Scanner.Workers = 2

	opts := cfg.ScannerOptions()
	assert.Equal(t, hedge.MethodKalman, opts.HedgeMethod)
	assert.Equal(t, cfg.Hedge.Config, opts.Hedge)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, cfg.Screening, opts.Analyzer)
}
