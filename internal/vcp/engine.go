package vcp

import (
	"context"

	"github.com/newthinker/vcpscan/internal/core"
	"github.com/newthinker/vcpscan/internal/indicator"
	"github.com/newthinker/vcpscan/internal/marketdata"
	"go.uber.org/zap"
)

// Config holds engine thresholds.
type Config struct {
	LookbackDays   int     // calendar days of history to request
	MinBars        int     // bars required before scoring at all
	Gate           float64 // raw weighted-sum validity gate
	HighTolerance  float64 // 52-week-high proximity tolerance
	TrendTolerance float64 // 0 means strict uptrend ordering
}

// DefaultConfig returns engine defaults matching the canonical setup.
func DefaultConfig() Config {
	return Config{
		LookbackDays:  365,
		MinBars:       200,
		Gate:          0.5,
		HighTolerance: 0.10,
	}
}

// Evaluation is the scored result for one symbol at one point in time.
// A symbol below the validity gate carries Confidence 0 and is excluded
// from all downstream consumers, not merely scored low.
type Evaluation struct {
	Symbol     string
	Indicators core.IndicatorSet
	ATR        float64 // last ATR, reused by the backtest stop rule
	Raw        float64 // weighted sum before scaling
	Confidence float64 // 0-100
	Valid      bool
}

// Engine scores symbols for the volatility contraction pattern.
type Engine struct {
	data    marketdata.Provider
	weights Weights
	cfg     Config
	logger  *zap.Logger
}

// NewEngine creates a scoring engine. The provider is typically a
// run-scoped cache so repeated fetches within one pass are memoized.
func NewEngine(data marketdata.Provider, weights Weights, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = 200
	}
	return &Engine{
		data:    data,
		weights: weights,
		cfg:     cfg,
		logger:  logger,
	}
}

// Score fetches history for the symbol and evaluates it. The returned
// error is limited to data unavailability; callers skip the symbol in
// that case rather than defaulting the score.
func (e *Engine) Score(ctx context.Context, symbol string) (*Evaluation, error) {
	series, err := e.data.FetchHistory(ctx, symbol, e.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}
	return e.ScoreSeries(series), nil
}

// ScoreSeries evaluates an already-fetched series. Indicator failures
// are mapped to "no signal" for that indicator, never propagated.
func (e *Engine) ScoreSeries(series *core.Series) *Evaluation {
	eval := &Evaluation{
		Symbol:     series.Symbol,
		Indicators: make(core.IndicatorSet),
	}

	if series.Len() < e.cfg.MinBars {
		e.logger.Debug("insufficient history",
			zap.String("symbol", series.Symbol),
			zap.Int("bars", series.Len()),
			zap.Int("required", e.cfg.MinBars),
		)
		return eval
	}

	bars := series.Bars

	if atr, ok := indicator.LastATR(bars, indicator.ATRPeriod); ok {
		eval.ATR = atr
		eval.Indicators[core.IndATR] = atr
	}

	eval.Indicators[core.IndATRContraction] = e.feature(series.Symbol, core.IndATRContraction,
		func() (float64, error) { return indicator.ATRContraction(bars) })
	eval.Indicators[core.IndVolumeContraction] = e.feature(series.Symbol, core.IndVolumeContraction,
		func() (float64, error) { return indicator.VolumeContraction(bars) })
	eval.Indicators[core.IndPullback] = e.feature(series.Symbol, core.IndPullback,
		func() (float64, error) { return indicator.PullbackContraction(bars) })
	eval.Indicators[core.IndPivotLevel] = e.feature(series.Symbol, core.IndPivotLevel,
		func() (float64, error) { return indicator.NearPivot(bars) })
	eval.Indicators[core.IndInTrend] = e.feature(series.Symbol, core.IndInTrend,
		func() (float64, error) { return indicator.InTrend(bars, e.cfg.TrendTolerance) })
	eval.Indicators[core.IndNear52WeekHigh] = e.feature(series.Symbol, core.IndNear52WeekHigh,
		func() (float64, error) { return indicator.Near52WeekHigh(bars, e.cfg.HighTolerance) })
	eval.Indicators[core.IndRelativeVolume] = e.feature(series.Symbol, core.IndRelativeVolume,
		func() (float64, error) { return indicator.RelativeVolume(bars) })
	eval.Indicators[core.IndClosingStrength] = e.feature(series.Symbol, core.IndClosingStrength,
		func() (float64, error) { return indicator.ClosingStrength(bars) })

	eval.Raw = e.weights.Apply(eval.Indicators)

	// Validity gate: below it the symbol is not a plausible setup and
	// scores exactly 0, a hard cutoff rather than a smooth decay.
	if eval.Raw > e.cfg.Gate {
		eval.Valid = true
		eval.Confidence = eval.Raw * 100
	}

	return eval
}

// feature runs one indicator and maps any failure to no signal.
func (e *Engine) feature(symbol, name string, fn func() (float64, error)) float64 {
	value, err := fn()
	if err != nil {
		e.logger.Debug("indicator unavailable",
			zap.String("symbol", symbol),
			zap.String("indicator", name),
			zap.Error(err),
		)
		return 0
	}
	return value
}
