// Package backtest replays the scoring engine over historical windows
// to estimate how often qualifying setups reached their target.
package backtest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/marketctx"
	"github.com/newthinker/vcpscan/internal/marketdata"
	"github.com/newthinker/vcpscan/internal/metrics"
	"github.com/newthinker/vcpscan/internal/vcp"
)

// Backtester simulates historical VCP entries.
type Backtester struct {
	provider marketdata.Provider
	engine   *vcp.Engine
	breadth  *marketctx.Breadth
	sector   *marketctx.Sector
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// New creates a Backtester. The breadth and sector scorers are only
// consulted when the corresponding filters are enabled and may be nil
// otherwise; the metrics registry may always be nil.
func New(provider marketdata.Provider, engine *vcp.Engine, breadth *marketctx.Breadth,
	sector *marketctx.Sector, cfg Config, logger *zap.Logger, reg *metrics.Registry) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.HorizonDays < 1 {
		cfg.HorizonDays = 10
	}
	return &Backtester{
		provider: provider,
		engine:   engine,
		breadth:  breadth,
		sector:   sector,
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
	}
}

// Run evaluates each symbol's setup inside [start, end] and aggregates
// a success rate. Symbols whose data is unavailable or whose score
// misses the entry threshold are omitted, never failed. An empty
// evaluated set yields a 0 rate, not NaN.
func (b *Backtester) Run(ctx context.Context, symbols []string, start, end time.Time) *Summary {
	began := time.Now()

	if b.cfg.MarketFilter && b.breadth != nil {
		if strength := b.breadth.Score(ctx); strength < b.cfg.MarketGate {
			b.logger.Info("market below strength gate, no entries taken",
				zap.Float64("strength", strength),
				zap.Float64("gate", b.cfg.MarketGate),
			)
			return &Summary{}
		}
	}

	jobs := make(chan string)
	out := make(chan Record)

	var wg sync.WaitGroup
	for w := 0; w < b.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if rec, ok := b.evaluate(ctx, symbol, start, end); ok {
					out <- rec
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, symbol := range symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- symbol:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	summary := &Summary{}
	var successes int
	for rec := range out {
		summary.Records = append(summary.Records, rec)
		if rec.Success {
			successes++
		}
	}

	summary.Evaluated = len(summary.Records)
	if summary.Evaluated > 0 {
		summary.SuccessRate = float64(successes) / float64(summary.Evaluated) * 100
	}

	if b.metrics != nil {
		b.metrics.RecordBacktest(time.Since(began))
	}
	b.logger.Info("backtest complete",
		zap.Int("universe", len(symbols)),
		zap.Int("evaluated", summary.Evaluated),
		zap.Float64("success_rate", summary.SuccessRate),
	)

	return summary
}

// evaluate labels one symbol's setup. The second return is false when
// the symbol is skipped.
func (b *Backtester) evaluate(ctx context.Context, symbol string, start, end time.Time) (Record, bool) {
	series, err := b.provider.FetchHistory(ctx, symbol, b.cfg.LookbackDays)
	if err != nil {
		b.logger.Debug("symbol skipped",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return Record{}, false
	}

	window := series.Between(start, end)
	eval := b.engine.ScoreSeries(window)
	if eval.Confidence <= b.cfg.EntryThreshold {
		return Record{}, false
	}

	if b.cfg.SectorFilter && b.sector != nil {
		outperforms, err := b.sector.Outperforms(ctx, symbol)
		if err != nil || !outperforms {
			return Record{}, false
		}
	}

	entryBar, ok := window.Last()
	if !ok {
		return Record{}, false
	}
	entry := entryBar.Close

	future := series.After(entryBar.Time)
	if future.Len() == 0 {
		// Entry at the very edge of available history cannot be
		// labeled either way.
		return Record{}, false
	}
	horizon := future.Bars
	if len(horizon) > b.cfg.HorizonDays {
		horizon = horizon[:b.cfg.HorizonDays]
	}

	var maxClose float64
	for _, bar := range horizon {
		if bar.Close > maxClose {
			maxClose = bar.Close
		}
	}

	rec := Record{
		Symbol:         symbol,
		VCPScore:       eval.Confidence,
		EntryPrice:     entry,
		MaxFuturePrice: maxClose,
	}

	switch b.cfg.Rule {
	case RuleForwardReturn:
		rec.Success = entry > 0 && (maxClose-entry)/entry >= b.cfg.TargetGain
	default:
		rec.StopLoss = entry - b.cfg.ATRStopMultiple*eval.ATR
		rec.TargetPrice = entry + b.cfg.TargetMultiple*(entry-rec.StopLoss)
		rec.Success = maxClose >= rec.TargetPrice
	}

	return rec, true
}
