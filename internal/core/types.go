package core

import "time"

// Bar represents one daily OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// IsValid checks that the bar's range is internally consistent.
func (b Bar) IsValid() bool {
	return b.High >= b.Low && b.Volume >= 0
}

// Series is an ascending-by-date sequence of daily bars for one symbol.
// A Series is immutable once returned by a provider; consumers slice it
// but never rewrite bars in place.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar and whether one exists.
func (s *Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes extracts closing prices in chronological order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes in chronological order.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// Between returns the sub-series whose bars fall within [start, end]
// inclusive. The returned series shares backing storage with s.
func (s *Series) Between(start, end time.Time) *Series {
	lo := 0
	for lo < len(s.Bars) && s.Bars[lo].Time.Before(start) {
		lo++
	}
	hi := len(s.Bars)
	for hi > lo && s.Bars[hi-1].Time.After(end) {
		hi--
	}
	return &Series{Symbol: s.Symbol, Bars: s.Bars[lo:hi]}
}

// After returns the sub-series strictly after t.
func (s *Series) After(t time.Time) *Series {
	lo := 0
	for lo < len(s.Bars) && !s.Bars[lo].Time.After(t) {
		lo++
	}
	return &Series{Symbol: s.Symbol, Bars: s.Bars[lo:]}
}

// CumulativeReturn is the summed day-over-day percent change across the
// series, used for relative-strength comparisons.
func (s *Series) CumulativeReturn() float64 {
	var total float64
	for i := 1; i < len(s.Bars); i++ {
		prev := s.Bars[i-1].Close
		if prev > 0 {
			total += (s.Bars[i].Close - prev) / prev
		}
	}
	return total
}

// IndicatorSet maps indicator names to their computed values for one
// symbol as of the last bar of a series. Values are either normalized
// scalars or 0/1 flags; the scoring engine treats both uniformly.
type IndicatorSet map[string]float64

// Canonical indicator names.
const (
	IndATR               = "atr"
	IndATRContraction    = "atr_contraction"
	IndVolumeContraction = "volume_contraction"
	IndPullback          = "pullback_contraction"
	IndPivotLevel        = "pivot_level"
	IndInTrend           = "in_trend"
	IndNear52WeekHigh    = "near_52w_high"
	IndRelativeVolume    = "relative_volume"
	IndClosingStrength   = "closing_strength"
)

// RankedResult is one row of scanner output, ordered by FinalScore.
type RankedResult struct {
	Symbol            string  `json:"symbol"`
	VCPScore          float64 `json:"vcp_score"`
	Institutional     float64 `json:"institutional_strength"`
	MarketStrength    float64 `json:"market_strength"`
	OutperformsSector bool    `json:"sector_outperformance"`
	FinalScore        float64 `json:"final_score"`
}
