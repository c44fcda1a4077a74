package vcp

import (
	"fmt"
	"math"

	"github.com/newthinker/vcpscan/internal/core"
)

// Weights maps each indicator to its share of the confidence score.
// The set must sum to 1.0; Validate enforces it. Weights are fixed for
// the life of an Engine and never mutated at runtime.
type Weights struct {
	ATRContraction    float64
	VolumeContraction float64
	Pullback          float64
	PivotLevel        float64
	Trend             float64
	HighProximity     float64
	VolumeExpansion   float64
	ClosingStrength   float64
}

// DefaultWeights returns the canonical eight-factor weighting.
func DefaultWeights() Weights {
	return Weights{
		ATRContraction:    0.20,
		VolumeContraction: 0.20,
		Pullback:          0.15,
		PivotLevel:        0.10,
		Trend:             0.10,
		HighProximity:     0.10,
		VolumeExpansion:   0.10,
		ClosingStrength:   0.05,
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.ATRContraction + w.VolumeContraction + w.Pullback + w.PivotLevel +
		w.Trend + w.HighProximity + w.VolumeExpansion + w.ClosingStrength
}

// Validate checks the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	if sum := w.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("indicator weights must sum to 1.0, got %f", sum))
	}
	return nil
}

// Apply computes the weighted sum over an indicator set. Missing
// indicators contribute nothing.
func (w Weights) Apply(set core.IndicatorSet) float64 {
	return set[core.IndATRContraction]*w.ATRContraction +
		set[core.IndVolumeContraction]*w.VolumeContraction +
		set[core.IndPullback]*w.Pullback +
		set[core.IndPivotLevel]*w.PivotLevel +
		set[core.IndInTrend]*w.Trend +
		set[core.IndNear52WeekHigh]*w.HighProximity +
		set[core.IndRelativeVolume]*w.VolumeExpansion +
		set[core.IndClosingStrength]*w.ClosingStrength
}
