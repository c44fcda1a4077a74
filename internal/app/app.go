// Package app wires configuration into runnable scan and backtest
// pipelines. Each run gets its own memoizing cache, constructed here
// and discarded with the run.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/backtest"
	"github.com/newthinker/vcpscan/internal/config"
	"github.com/newthinker/vcpscan/internal/core"
	"github.com/newthinker/vcpscan/internal/marketctx"
	"github.com/newthinker/vcpscan/internal/marketdata"
	"github.com/newthinker/vcpscan/internal/marketdata/polygon"
	"github.com/newthinker/vcpscan/internal/metrics"
	"github.com/newthinker/vcpscan/internal/scanner"
	"github.com/newthinker/vcpscan/internal/vcp"
)

// App builds and runs scoring pipelines from immutable configuration.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry
	client  *polygon.Client
}

// New creates an App. The metrics registry may be nil.
func New(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := polygon.New(polygon.Config{
		APIKey:        cfg.Polygon.APIKey,
		BaseURL:       cfg.Polygon.BaseURL,
		Timeout:       cfg.Polygon.Timeout,
		RetryAttempts: cfg.Polygon.RetryAttempts,
		RetryBackoff:  cfg.Polygon.RetryBackoff,
	}, logger)

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		client:  client,
	}
}

// Scan ranks the given symbols and returns the shortlist.
func (a *App) Scan(ctx context.Context, symbols []string) []core.RankedResult {
	cache := marketdata.NewCache(a.client)
	defer a.flushCacheStats(cache)

	engine := a.newEngine(cache)
	breadth := a.newBreadth(cache)
	sector := a.newSector(cache)
	institutional := marketctx.NewInstitutional(a.client, a.logger)

	sc := scanner.New(engine, breadth, sector, institutional, scanner.Config{
		Workers:      a.cfg.Scan.Workers,
		TopN:         a.cfg.Scan.TopN,
		StrengthGate: a.cfg.Market.StrengthGate,
		Weights: scanner.CompositeWeights{
			VCP:           a.cfg.Scan.CompositeWeights.VCP,
			Institutional: a.cfg.Scan.CompositeWeights.Institutional,
			Market:        a.cfg.Scan.CompositeWeights.Market,
			Sector:        a.cfg.Scan.CompositeWeights.Sector,
		},
	}, a.logger, a.metrics)

	return sc.Rank(ctx, symbols)
}

// Backtest replays setups over [start, end] for the given symbols.
func (a *App) Backtest(ctx context.Context, symbols []string, start, end time.Time) *backtest.Summary {
	cache := marketdata.NewCache(a.client)
	defer a.flushCacheStats(cache)

	engine := a.newEngine(cache)
	breadth := a.newBreadth(cache)
	sector := a.newSector(cache)

	bt := backtest.New(cache, engine, breadth, sector, backtest.Config{
		Rule:            backtest.Rule(a.cfg.Backtest.Rule),
		EntryThreshold:  a.cfg.Backtest.EntryThreshold,
		HorizonDays:     a.cfg.Backtest.HorizonDays,
		TargetGain:      a.cfg.Backtest.TargetGain,
		ATRStopMultiple: a.cfg.Backtest.ATRStopMultiple,
		TargetMultiple:  a.cfg.Backtest.TargetMultiple,
		LookbackDays:    a.cfg.Backtest.LookbackDays,
		Workers:         a.cfg.Scan.Workers,
		MarketFilter:    a.cfg.Backtest.MarketFilter,
		SectorFilter:    a.cfg.Backtest.SectorFilter,
		MarketGate:      a.cfg.Backtest.MarketGate,
	}, a.logger, a.metrics)

	return bt.Run(ctx, symbols, start, end)
}

func (a *App) newEngine(data marketdata.Provider) *vcp.Engine {
	weights := vcp.Weights{
		ATRContraction:    a.cfg.Scan.ScoreWeights.ATRContraction,
		VolumeContraction: a.cfg.Scan.ScoreWeights.VolumeContraction,
		Pullback:          a.cfg.Scan.ScoreWeights.Pullback,
		PivotLevel:        a.cfg.Scan.ScoreWeights.PivotLevel,
		Trend:             a.cfg.Scan.ScoreWeights.Trend,
		HighProximity:     a.cfg.Scan.ScoreWeights.HighProximity,
		VolumeExpansion:   a.cfg.Scan.ScoreWeights.VolumeExpansion,
		ClosingStrength:   a.cfg.Scan.ScoreWeights.ClosingStrength,
	}
	return vcp.NewEngine(data, weights, vcp.Config{
		LookbackDays:  a.cfg.Scan.LookbackDays,
		MinBars:       a.cfg.Scan.MinBars,
		Gate:          a.cfg.Scan.ScoreGate,
		HighTolerance: a.cfg.Scan.HighTolerance,
	}, a.logger)
}

func (a *App) newBreadth(data marketdata.Provider) *marketctx.Breadth {
	return marketctx.NewBreadth(data, marketctx.BreadthConfig{
		VIXSymbol:       a.cfg.Market.VIXSymbol,
		BreadthSymbol:   a.cfg.Market.BreadthSymbol,
		BenchmarkSymbol: a.cfg.Market.BenchmarkSymbol,
		LookbackDays:    a.cfg.Scan.LookbackDays,
	}, a.logger)
}

func (a *App) newSector(data marketdata.Provider) *marketctx.Sector {
	return marketctx.NewSector(data, a.cfg.Market.SectorMap, a.cfg.Scan.LookbackDays, a.logger)
}

func (a *App) flushCacheStats(cache *marketdata.Cache) {
	if a.metrics == nil {
		return
	}
	hits, misses := cache.Stats()
	a.metrics.RecordCache(hits, misses)
}
