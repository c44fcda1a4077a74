package vcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/vcpscan/internal/core"
)

type stubProvider struct {
	series *core.Series
	err    error
}

func (s *stubProvider) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*core.Series, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

// coiledSeries builds 250 bars of a textbook setup: a long advance into
// a tightening consolidation near highs, with volume drying up and a
// surge on the final bar.
func coiledSeries(symbol string) *core.Series {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, 250)

	for i := 0; i < 210; i++ {
		c := 100 + 0.5*float64(i)
		bars[i] = core.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}

	base := bars[209].Close
	for i := 210; i < 250; i++ {
		j := float64(i - 210)
		c := base + 0.04*(j+1)
		rng := 3.0 - 2.5*j/39
		vol := int64(1000)
		if i >= 230 {
			vol = 200
		}
		bars[i] = core.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + rng/2,
			Low:    c - rng/2,
			Close:  c,
			Volume: vol,
		}
	}
	bars[249].Volume = 2000

	return &core.Series{Symbol: symbol, Bars: bars}
}

// fadingSeries builds 250 bars of a steady decline with no contraction
// signals at all.
func fadingSeries(symbol string) *core.Series {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, 250)
	for i := range bars {
		c := 200 - 0.4*float64(i)
		bars[i] = core.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return &core.Series{Symbol: symbol, Bars: bars}
}

func TestScoreSeriesValidSetup(t *testing.T) {
	engine := NewEngine(nil, DefaultWeights(), DefaultConfig(), nil)

	eval := engine.ScoreSeries(coiledSeries("AAPL"))

	if !eval.Valid {
		t.Fatalf("expected a valid setup, raw=%v indicators=%v", eval.Raw, eval.Indicators)
	}
	if eval.Confidence <= 50 {
		t.Errorf("expected confidence above 50, got %v", eval.Confidence)
	}
	if eval.Confidence != eval.Raw*100 {
		t.Errorf("confidence must be raw*100: raw=%v confidence=%v", eval.Raw, eval.Confidence)
	}
	if eval.ATR <= 0 {
		t.Errorf("expected positive ATR, got %v", eval.ATR)
	}

	for _, name := range []string{
		core.IndATRContraction,
		core.IndPivotLevel,
		core.IndInTrend,
		core.IndNear52WeekHigh,
		core.IndRelativeVolume,
	} {
		if eval.Indicators[name] != 1 {
			t.Errorf("expected %s flag set, got %v", name, eval.Indicators[name])
		}
	}
}

func TestScoreSeriesBelowGateScoresZero(t *testing.T) {
	engine := NewEngine(nil, DefaultWeights(), DefaultConfig(), nil)

	eval := engine.ScoreSeries(fadingSeries("XYZ"))

	if eval.Valid {
		t.Error("declining series must not be a valid setup")
	}
	if eval.Confidence != 0 {
		t.Errorf("below the gate the confidence is exactly 0, got %v", eval.Confidence)
	}
	if eval.Raw >= 0.5 {
		t.Errorf("expected raw below gate, got %v", eval.Raw)
	}
}

func TestScoreSeriesGateBoundary(t *testing.T) {
	// fadingSeries closes mid-range every day, so closing strength is
	// exactly 0.5 and every other indicator is 0. Weighting closing
	// strength alone pins the raw score on the gate itself, where the
	// setup must still score 0: the cutoff is strict.
	weights := Weights{ClosingStrength: 1.0}
	engine := NewEngine(nil, weights, DefaultConfig(), nil)

	eval := engine.ScoreSeries(fadingSeries("MID"))
	if eval.Raw != 0.5 {
		t.Fatalf("fixture drift: expected raw 0.5, got %v", eval.Raw)
	}
	if eval.Valid {
		t.Error("a raw score equal to the gate must not validate")
	}
	if eval.Confidence != 0 {
		t.Errorf("expected confidence 0, got %v", eval.Confidence)
	}
}

func TestScoreSeriesFlatLastBar(t *testing.T) {
	engine := NewEngine(nil, DefaultWeights(), DefaultConfig(), nil)

	series := coiledSeries("FLAT")
	last := &series.Bars[249]
	last.High = last.Close
	last.Low = last.Close
	last.Open = last.Close

	// A zero-width final range must not abort the evaluation; every
	// indicator still reports, with closing strength at 0.
	eval := engine.ScoreSeries(series)
	if eval.Indicators[core.IndClosingStrength] != 0 {
		t.Errorf("expected closing strength 0, got %v", eval.Indicators[core.IndClosingStrength])
	}
	for _, name := range []string{
		core.IndATRContraction,
		core.IndVolumeContraction,
		core.IndPullback,
		core.IndPivotLevel,
		core.IndInTrend,
		core.IndNear52WeekHigh,
		core.IndRelativeVolume,
		core.IndClosingStrength,
	} {
		if _, ok := eval.Indicators[name]; !ok {
			t.Errorf("indicator %s missing from set", name)
		}
	}
}

func TestScoreSeriesInsufficientHistory(t *testing.T) {
	engine := NewEngine(nil, DefaultWeights(), DefaultConfig(), nil)

	short := coiledSeries("SHRT")
	short.Bars = short.Bars[:150]

	eval := engine.ScoreSeries(short)
	if eval.Valid || eval.Confidence != 0 || eval.Raw != 0 {
		t.Errorf("short history must score zero: %+v", eval)
	}
}

func TestScorePropagatesFetchErrors(t *testing.T) {
	provider := &stubProvider{err: core.ErrDataUnavailable}
	engine := NewEngine(provider, DefaultWeights(), DefaultConfig(), nil)

	_, err := engine.Score(context.Background(), "AAPL")
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestScoreFetchesAndEvaluates(t *testing.T) {
	provider := &stubProvider{series: coiledSeries("NVDA")}
	engine := NewEngine(provider, DefaultWeights(), DefaultConfig(), nil)

	eval, err := engine.Score(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Symbol != "NVDA" {
		t.Errorf("expected symbol NVDA, got %s", eval.Symbol)
	}
	if !eval.Valid {
		t.Errorf("expected valid setup, raw=%v", eval.Raw)
	}
}
