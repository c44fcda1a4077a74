package indicator

import (
	"math"

	"github.com/newthinker/vcpscan/internal/core"
)

// TrueRange computes the true range of a bar given the previous close.
func TrueRange(bar core.Bar, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if hc := math.Abs(bar.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(bar.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// ATR calculates Average True Range using Wilder's smoothing.
// Returns one value per bar from index period onward, so the slice has
// len(bars) - period elements.
func ATR(bars []core.Bar, period int) []float64 {
	if period <= 0 || len(bars) <= period {
		return []float64{}
	}

	// Seed with a simple average of the first period true ranges.
	var sum float64
	for i := 1; i <= period; i++ {
		sum += TrueRange(bars[i], bars[i-1].Close)
	}
	atr := sum / float64(period)

	result := make([]float64, 0, len(bars)-period)
	result = append(result, atr)

	for i := period + 1; i < len(bars); i++ {
		tr := TrueRange(bars[i], bars[i-1].Close)
		atr = (atr*float64(period-1) + tr) / float64(period)
		result = append(result, atr)
	}

	return result
}

// LastATR returns the most recent ATR value, or false when there is
// not enough history.
func LastATR(bars []core.Bar, period int) (float64, bool) {
	values := ATR(bars, period)
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
