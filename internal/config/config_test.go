package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/vcpscan/internal/core"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Polygon.APIKey = "test-key"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "https://api.polygon.io", cfg.Polygon.BaseURL)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 20, cfg.Scan.TopN)
	assert.Equal(t, 200, cfg.Scan.MinBars)
	assert.Equal(t, 0.5, cfg.Scan.ScoreGate)
	assert.Equal(t, "atr", cfg.Backtest.Rule)
	assert.Equal(t, 10, cfg.Backtest.HorizonDays)
	assert.Equal(t, 1.5, cfg.Backtest.ATRStopMultiple)
	assert.Equal(t, 3.0, cfg.Backtest.TargetMultiple)
	assert.InDelta(t, 1.0, cfg.Scan.ScoreWeights.Sum(), 1e-9)
	assert.InDelta(t, 1.0, cfg.Scan.CompositeWeights.Sum(), 1e-9)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateMissingAPIKey(t *testing.T) {
	err := Defaults().Validate()
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Scan.Workers = 0 }},
		{"zero top_n", func(c *Config) { c.Scan.TopN = 0 }},
		{"zero retries", func(c *Config) { c.Polygon.RetryAttempts = 0 }},
		{"bad score weights", func(c *Config) { c.Scan.ScoreWeights.ClosingStrength = 0.5 }},
		{"bad composite weights", func(c *Config) { c.Scan.CompositeWeights.Sector = 0.5 }},
		{"zero high tolerance", func(c *Config) { c.Scan.HighTolerance = 0 }},
		{"unknown rule", func(c *Config) { c.Backtest.Rule = "martingale" }},
		{"zero horizon", func(c *Config) { c.Backtest.HorizonDays = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), core.ErrConfigInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	content := `
polygon:
  api_key: file-key
  timeout: 5s
scan:
  workers: 4
  top_n: 10
backtest:
  rule: forward_return
server:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Polygon.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Polygon.Timeout)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 10, cfg.Scan.TopN)
	assert.Equal(t, "forward_return", cfg.Backtest.Rule)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Values absent from the file keep their defaults.
	assert.Equal(t, 200, cfg.Scan.MinBars)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "SPY", cfg.Market.BenchmarkSymbol)
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_POLYGON_KEY", "env-secret")

	content := `
polygon:
  api_key: ${TEST_POLYGON_KEY}
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Polygon.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
