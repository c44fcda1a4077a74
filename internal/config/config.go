package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/newthinker/vcpscan/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Polygon  PolygonConfig  `mapstructure:"polygon"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Market   MarketConfig   `mapstructure:"market"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// PolygonConfig holds the market data service settings.
type PolygonConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

// ScanConfig holds the scoring and ranking settings.
type ScanConfig struct {
	Workers       int     `mapstructure:"workers"`
	TopN          int     `mapstructure:"top_n"`
	LookbackDays  int     `mapstructure:"lookback_days"`
	MinBars       int     `mapstructure:"min_bars"`
	ScoreGate     float64 `mapstructure:"score_gate"`
	HighTolerance float64 `mapstructure:"high_tolerance"`

	ScoreWeights     ScoreWeights     `mapstructure:"score_weights"`
	CompositeWeights CompositeWeights `mapstructure:"composite_weights"`
}

// ScoreWeights maps each VCP indicator to its share of the confidence
// score. The set must sum to 1.0.
type ScoreWeights struct {
	ATRContraction    float64 `mapstructure:"atr_contraction"`
	VolumeContraction float64 `mapstructure:"volume_contraction"`
	Pullback          float64 `mapstructure:"pullback_contraction"`
	PivotLevel        float64 `mapstructure:"pivot_level"`
	Trend             float64 `mapstructure:"trend"`
	HighProximity     float64 `mapstructure:"high_proximity"`
	VolumeExpansion   float64 `mapstructure:"volume_expansion"`
	ClosingStrength   float64 `mapstructure:"closing_strength"`
}

// Sum returns the total weight.
func (w ScoreWeights) Sum() float64 {
	return w.ATRContraction + w.VolumeContraction + w.Pullback + w.PivotLevel +
		w.Trend + w.HighProximity + w.VolumeExpansion + w.ClosingStrength
}

// CompositeWeights combines the per-factor scores into the final
// ranking score. No single combination is authoritative in the source
// material, so the set is configuration rather than a constant.
type CompositeWeights struct {
	VCP           float64 `mapstructure:"vcp"`
	Institutional float64 `mapstructure:"institutional"`
	Market        float64 `mapstructure:"market"`
	Sector        float64 `mapstructure:"sector"`
}

// Sum returns the total weight.
func (w CompositeWeights) Sum() float64 {
	return w.VCP + w.Institutional + w.Market + w.Sector
}

// MarketConfig holds market-context settings.
type MarketConfig struct {
	VIXSymbol       string            `mapstructure:"vix_symbol"`
	BreadthSymbol   string            `mapstructure:"breadth_symbol"`
	BenchmarkSymbol string            `mapstructure:"benchmark_symbol"`
	StrengthGate    float64           `mapstructure:"strength_gate"`
	SectorMap       map[string]string `mapstructure:"sector_map"`
}

// BacktestConfig holds backtest simulator settings.
type BacktestConfig struct {
	Rule            string  `mapstructure:"rule"` // "atr" or "forward_return"
	EntryThreshold  float64 `mapstructure:"entry_threshold"`
	HorizonDays     int     `mapstructure:"horizon_days"`
	TargetGain      float64 `mapstructure:"target_gain"`
	ATRStopMultiple float64 `mapstructure:"atr_stop_multiple"`
	TargetMultiple  float64 `mapstructure:"target_multiple"`
	MarketGate      float64 `mapstructure:"market_gate"`
	MarketFilter    bool    `mapstructure:"market_filter"`
	SectorFilter    bool    `mapstructure:"sector_filter"`
	LookbackDays    int     `mapstructure:"lookback_days"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Polygon: PolygonConfig{
			BaseURL:       "https://api.polygon.io",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryBackoff:  2 * time.Second,
		},
		Scan: ScanConfig{
			Workers:       8,
			TopN:          20,
			LookbackDays:  365,
			MinBars:       200,
			ScoreGate:     0.5,
			HighTolerance: 0.10,
			ScoreWeights: ScoreWeights{
				ATRContraction:    0.20,
				VolumeContraction: 0.20,
				Pullback:          0.15,
				PivotLevel:        0.10,
				Trend:             0.10,
				HighProximity:     0.10,
				VolumeExpansion:   0.10,
				ClosingStrength:   0.05,
			},
			CompositeWeights: CompositeWeights{
				VCP:           0.40,
				Institutional: 0.30,
				Market:        0.20,
				Sector:        0.10,
			},
		},
		Market: MarketConfig{
			VIXSymbol:       "VIX",
			BreadthSymbol:   "ADL",
			BenchmarkSymbol: "SPY",
			StrengthGate:    50,
			SectorMap: map[string]string{
				"AAPL": "XLK", "MSFT": "XLK", "NVDA": "XLK",
				"XOM": "XLE", "CVX": "XLE",
				"JPM": "XLF", "GS": "XLF",
				"PFE": "XLV", "JNJ": "XLV",
			},
		},
		Backtest: BacktestConfig{
			Rule:            "atr",
			EntryThreshold:  50,
			HorizonDays:     10,
			TargetGain:      0.10,
			ATRStopMultiple: 1.5,
			TargetMultiple:  3.0,
			MarketGate:      60,
			LookbackDays:    365,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Polygon.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("polygon api_key is required"))
	}
	if c.Polygon.RetryAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retry_attempts must be at least 1, got %d", c.Polygon.RetryAttempts))
	}
	if c.Scan.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers must be at least 1, got %d", c.Scan.Workers))
	}
	if c.Scan.TopN < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("top_n must be at least 1, got %d", c.Scan.TopN))
	}
	if sum := c.Scan.ScoreWeights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("score_weights must sum to 1.0, got %f", sum))
	}
	if sum := c.Scan.CompositeWeights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("composite_weights must sum to 1.0, got %f", sum))
	}
	if c.Scan.HighTolerance <= 0 || c.Scan.HighTolerance > 0.5 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("high_tolerance must be in (0, 0.5], got %f", c.Scan.HighTolerance))
	}
	switch c.Backtest.Rule {
	case "atr", "forward_return":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest rule must be atr or forward_return, got %q", c.Backtest.Rule))
	}
	if c.Backtest.HorizonDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("horizon_days must be at least 1, got %d", c.Backtest.HorizonDays))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	return nil
}
