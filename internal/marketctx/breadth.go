// Package marketctx scores the environment around a setup: overall
// market breadth, sector relative strength, and institutional activity.
package marketctx

import (
	"context"

	"github.com/newthinker/vcpscan/internal/indicator"
	"github.com/newthinker/vcpscan/internal/marketdata"
	"go.uber.org/zap"
)

// BreadthConfig holds the symbols and lookbacks for the market breadth
// score.
type BreadthConfig struct {
	VIXSymbol       string
	BreadthSymbol   string
	BenchmarkSymbol string
	LookbackDays    int
}

// DefaultBreadthConfig returns the standard US-market inputs.
func DefaultBreadthConfig() BreadthConfig {
	return BreadthConfig{
		VIXSymbol:       "VIX",
		BreadthSymbol:   "ADL",
		BenchmarkSymbol: "SPY",
		LookbackDays:    365,
	}
}

// Breadth scores overall market strength from the volatility index, an
// advance-decline line, and the benchmark trend. It reflects market
// state rather than any single symbol, so callers compute it once per
// ranking pass.
type Breadth struct {
	data   marketdata.Provider
	cfg    BreadthConfig
	logger *zap.Logger
}

// NewBreadth creates a market breadth scorer.
func NewBreadth(data marketdata.Provider, cfg BreadthConfig, logger *zap.Logger) *Breadth {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	return &Breadth{data: data, cfg: cfg, logger: logger}
}

// Score returns the 0-100 market strength value. Missing data for any
// component yields 0, signalling an unconfirmed market rather than
// failing the scan.
func (b *Breadth) Score(ctx context.Context) float64 {
	vix, ok := b.lastClose(ctx, b.cfg.VIXSymbol)
	if !ok {
		return 0
	}
	adl, ok := b.lastClose(ctx, b.cfg.BreadthSymbol)
	if !ok {
		return 0
	}
	trend, ok := b.benchmarkTrend(ctx)
	if !ok {
		return 0
	}

	return vixScore(vix)*0.4 + adlScore(adl)*0.3 + trend*0.3
}

// vixScore bands the volatility index: low volatility is bullish.
func vixScore(vix float64) float64 {
	switch {
	case vix < 20:
		return 100
	case vix < 25:
		return 50
	default:
		return 0
	}
}

// adlScore bands the advance-decline reading by sign and magnitude.
func adlScore(adl float64) float64 {
	switch {
	case adl > 0:
		return 100
	case adl > -1000:
		return 50
	default:
		return 0
	}
}

// benchmarkTrend scores 100 when the benchmark sits in a strict
// uptrend (close > 50-SMA > 200-SMA), 50 otherwise.
func (b *Breadth) benchmarkTrend(ctx context.Context) (float64, bool) {
	series, err := b.data.FetchHistory(ctx, b.cfg.BenchmarkSymbol, b.cfg.LookbackDays)
	if err != nil {
		b.logger.Debug("benchmark unavailable",
			zap.String("symbol", b.cfg.BenchmarkSymbol),
			zap.Error(err),
		)
		return 0, false
	}

	closes := series.Closes()
	fast, ok := indicator.LastSMA(closes, indicator.FastSMAPeriod)
	if !ok {
		return 50, true
	}
	slow, ok := indicator.LastSMA(closes, indicator.SlowSMAPeriod)
	if !ok {
		return 50, true
	}

	last := closes[len(closes)-1]
	if last > fast && fast > slow {
		return 100, true
	}
	return 50, true
}

func (b *Breadth) lastClose(ctx context.Context, symbol string) (float64, bool) {
	series, err := b.data.FetchHistory(ctx, symbol, b.cfg.LookbackDays)
	if err != nil {
		b.logger.Debug("breadth input unavailable",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return 0, false
	}
	last, ok := series.Last()
	if !ok {
		return 0, false
	}
	return last.Close, true
}
