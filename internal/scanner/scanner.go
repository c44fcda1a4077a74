// Package scanner fans a ticker universe out across a bounded worker
// pool, scores each symbol, and returns the ranked shortlist.
package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/core"
	"github.com/newthinker/vcpscan/internal/marketctx"
	"github.com/newthinker/vcpscan/internal/metrics"
	"github.com/newthinker/vcpscan/internal/vcp"
)

// CompositeWeights combines per-factor scores into the final ranking
// score.
type CompositeWeights struct {
	VCP           float64
	Institutional float64
	Market        float64
	Sector        float64
}

// DefaultCompositeWeights returns the canonical combination.
func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{
		VCP:           0.40,
		Institutional: 0.30,
		Market:        0.20,
		Sector:        0.10,
	}
}

// Config holds scanner settings.
type Config struct {
	Workers int
	TopN    int
	Weights CompositeWeights

	// StrengthGate is advisory: a pass run below it is logged as a
	// weak-market scan but still completes.
	StrengthGate float64
}

// DefaultConfig returns scanner defaults.
func DefaultConfig() Config {
	return Config{
		Workers:      8,
		TopN:         20,
		Weights:      DefaultCompositeWeights(),
		StrengthGate: 50,
	}
}

// Scanner ranks a ticker universe by composite confidence score.
type Scanner struct {
	engine        *vcp.Engine
	breadth       *marketctx.Breadth
	sector        *marketctx.Sector
	institutional *marketctx.Institutional
	cfg           Config
	logger        *zap.Logger
	metrics       *metrics.Registry
}

// New creates a Scanner. The metrics registry may be nil.
func New(engine *vcp.Engine, breadth *marketctx.Breadth, sector *marketctx.Sector,
	institutional *marketctx.Institutional, cfg Config, logger *zap.Logger, reg *metrics.Registry) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TopN < 1 {
		cfg.TopN = 20
	}
	return &Scanner{
		engine:        engine,
		breadth:       breadth,
		sector:        sector,
		institutional: institutional,
		cfg:           cfg,
		logger:        logger,
		metrics:       reg,
	}
}

// Rank scores every symbol concurrently, filters out symbols that
// failed the validity gate or whose data was unavailable, and returns
// at most TopN results sorted descending by final score. Per-symbol
// failures never abort the batch.
func (s *Scanner) Rank(ctx context.Context, symbols []string) []core.RankedResult {
	start := time.Now()

	// Market breadth reflects overall market state; compute it once
	// per pass, not per symbol.
	marketStrength := s.breadth.Score(ctx)
	if marketStrength < s.cfg.StrengthGate {
		s.logger.Warn("scanning in a weak market",
			zap.Float64("strength", marketStrength),
			zap.Float64("gate", s.cfg.StrengthGate),
		)
	}

	jobs := make(chan string)
	out := make(chan core.RankedResult)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if result, ok := s.process(ctx, symbol, marketStrength); ok {
					out <- result
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

	// Single collector; workers never share result state.
	var results []core.RankedResult
	for r := range out {
		results = append(results, r)
	}

	// Collection order is scheduler-dependent, so ties break on the
	// symbol to keep repeated runs identical.
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].Symbol < results[j].Symbol
	})
	if len(results) > s.cfg.TopN {
		results = results[:s.cfg.TopN]
	}

	if s.metrics != nil {
		s.metrics.RecordScan(time.Since(start))
	}
	s.logger.Info("scan complete",
		zap.Int("universe", len(symbols)),
		zap.Int("ranked", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return results
}

// process scores one symbol. The second return is false when the
// symbol should be omitted from results.
func (s *Scanner) process(ctx context.Context, symbol string, marketStrength float64) (core.RankedResult, bool) {
	eval, err := s.engine.Score(ctx, symbol)
	if err != nil {
		// Unavailable data means skip, never a defaulted score.
		s.recordOutcome("skipped")
		s.logger.Debug("symbol skipped",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return core.RankedResult{}, false
	}
	if !eval.Valid {
		s.recordOutcome("gated")
		return core.RankedResult{}, false
	}

	institutional := s.institutional.Score(ctx, symbol)

	outperforms, err := s.sector.Outperforms(ctx, symbol)
	if err != nil {
		if !errors.Is(err, core.ErrNoData) {
			s.logger.Debug("sector comparison unavailable",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
		s.recordOutcome("skipped")
		return core.RankedResult{}, false
	}

	sectorTerm := 0.0
	if outperforms {
		sectorTerm = 1
	}

	// The sector term is a bare 0/1 flag, so its weight acts as a
	// tie-breaker between otherwise similar setups rather than a
	// 0-100 factor.
	w := s.cfg.Weights
	final := eval.Confidence*w.VCP +
		institutional*w.Institutional +
		marketStrength*w.Market +
		sectorTerm*w.Sector

	s.recordOutcome("ranked")
	return core.RankedResult{
		Symbol:            symbol,
		VCPScore:          eval.Confidence,
		Institutional:     institutional,
		MarketStrength:    marketStrength,
		OutperformsSector: outperforms,
		FinalScore:        final,
	}, true
}

func (s *Scanner) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSymbol(outcome)
	}
}
