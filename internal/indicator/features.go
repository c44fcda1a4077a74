package indicator

import (
	"github.com/newthinker/vcpscan/internal/core"
)

// Window sizes for the VCP feature set.
const (
	ATRPeriod          = 14
	ContractionWindow  = 5
	VolumeMAPeriod     = 20
	PullbackWindow     = 5
	PullbackLegs       = 3
	PivotPeriod        = 20
	PivotDiscount      = 0.98
	FastSMAPeriod      = 50
	SlowSMAPeriod      = 200
	YearPeriod         = 252
	RelVolumeWindow    = 5
	RelVolumeThreshold = 1.3
)

// ATRContraction reports whether the daily trading range is tightening:
// the sum of day-over-day ATR deltas over the trailing contraction
// window must be negative. Returns 1 or 0.
func ATRContraction(bars []core.Bar) (float64, error) {
	atr := ATR(bars, ATRPeriod)
	deltas := Diff(atr)
	if len(deltas) < ContractionWindow {
		return 0, core.ErrInsufficientData
	}

	var sum float64
	for _, d := range deltas[len(deltas)-ContractionWindow:] {
		sum += d
	}
	if sum < 0 {
		return 1, nil
	}
	return 0, nil
}

// VolumeContraction counts trailing days whose volume fell below 70% of
// the 20-bar volume moving average, normalized to [0, 1] over the
// trailing 20 days.
func VolumeContraction(bars []core.Bar) (float64, error) {
	series := core.Series{Bars: bars}
	vols := series.Volumes()
	ma := SMA(vols, VolumeMAPeriod)
	if len(ma) == 0 {
		return 0, core.ErrInsufficientData
	}

	// Align: ma[i] corresponds to vols[i+VolumeMAPeriod-1].
	n := len(ma)
	if n > VolumeMAPeriod {
		n = VolumeMAPeriod
	}

	var count int
	for i := 0; i < n; i++ {
		idx := len(ma) - 1 - i
		vol := vols[idx+VolumeMAPeriod-1]
		if vol < ma[idx]*0.7 {
			count++
		}
	}
	return float64(count) / float64(VolumeMAPeriod), nil
}

// PullbackContraction checks for shrinking pullbacks: the 5-bar rolling
// sums of daily price change must be strictly increasing over the last
// three legs (each pullback less deep than the one before). Returns 1
// or 0.
func PullbackContraction(bars []core.Bar) (float64, error) {
	series := core.Series{Bars: bars}
	deltas := Diff(series.Closes())
	sums := RollingSum(deltas, PullbackWindow)
	if len(sums) < PullbackLegs {
		return 0, core.ErrInsufficientData
	}

	last := sums[len(sums)-PullbackLegs:]
	if last[0] < last[1] && last[1] < last[2] {
		return 1, nil
	}
	return 0, nil
}

// PivotLevel returns the breakout trigger price: the trailing 20-bar
// high close discounted just under resistance.
func PivotLevel(bars []core.Bar) (float64, error) {
	if len(bars) < PivotPeriod {
		return 0, core.ErrInsufficientData
	}

	var high float64
	for _, b := range bars[len(bars)-PivotPeriod:] {
		if b.Close > high {
			high = b.Close
		}
	}
	return high * PivotDiscount, nil
}

// NearPivot reports whether the last close sits at or above the pivot
// level, i.e. the setup is coiled directly under resistance. Returns 1
// or 0.
func NearPivot(bars []core.Bar) (float64, error) {
	pivot, err := PivotLevel(bars)
	if err != nil {
		return 0, err
	}
	if bars[len(bars)-1].Close >= pivot {
		return 1, nil
	}
	return 0, nil
}

// InTrend confirms a strict uptrend: last close above the 50-bar SMA,
// which itself is above the 200-bar SMA. A non-zero tolerance relaxes
// the close check to within that fraction of the 200-bar SMA. Returns 1
// or 0.
func InTrend(bars []core.Bar, tolerance float64) (float64, error) {
	series := core.Series{Bars: bars}
	closes := series.Closes()

	fast, ok := LastSMA(closes, FastSMAPeriod)
	if !ok {
		return 0, core.ErrInsufficientData
	}
	slow, ok := LastSMA(closes, SlowSMAPeriod)
	if !ok {
		return 0, core.ErrInsufficientData
	}

	last := closes[len(closes)-1]
	if last > fast && fast > slow {
		return 1, nil
	}
	if tolerance > 0 && fast > slow && last >= slow*(1-tolerance) {
		return 1, nil
	}
	return 0, nil
}

// Near52WeekHigh reports whether the last close is within tolerance of
// the trailing 252-bar high. Returns 1 or 0.
func Near52WeekHigh(bars []core.Bar, tolerance float64) (float64, error) {
	if len(bars) == 0 {
		return 0, core.ErrInsufficientData
	}

	window := bars
	if len(window) > YearPeriod {
		window = window[len(window)-YearPeriod:]
	}

	var high float64
	for _, b := range window {
		if b.High > high {
			high = b.High
		}
	}
	if high == 0 {
		return 0, nil
	}

	last := bars[len(bars)-1].Close
	if last >= high*(1-tolerance) {
		return 1, nil
	}
	return 0, nil
}

// RelativeVolume reports whether the last bar's volume expanded above
// 1.3x the trailing 5-bar average volume. Returns 1 or 0.
func RelativeVolume(bars []core.Bar) (float64, error) {
	if len(bars) < RelVolumeWindow+1 {
		return 0, core.ErrInsufficientData
	}

	var sum float64
	for _, b := range bars[len(bars)-RelVolumeWindow-1 : len(bars)-1] {
		sum += float64(b.Volume)
	}
	avg := sum / float64(RelVolumeWindow)
	if avg == 0 {
		return 0, nil
	}

	if float64(bars[len(bars)-1].Volume)/avg > RelVolumeThreshold {
		return 1, nil
	}
	return 0, nil
}

// ClosingStrength is where the last bar closed within its daily range,
// as a [0, 1] scalar. A zero-width range evaluates to 0 rather than
// dividing by zero.
func ClosingStrength(bars []core.Bar) (float64, error) {
	if len(bars) == 0 {
		return 0, core.ErrInsufficientData
	}

	last := bars[len(bars)-1]
	width := last.High - last.Low
	if width == 0 {
		return 0, nil
	}
	return (last.Close - last.Low) / width, nil
}
