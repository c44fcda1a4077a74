package indicator

import (
	"testing"

	"github.com/newthinker/vcpscan/internal/core"
)

// flatBars builds n bars with a constant range centered on close.
func flatBars(n int, close, rng float64) []core.Bar {
	bars := make([]core.Bar, n)
	for i := range bars {
		bars[i] = core.Bar{
			Open:   close,
			High:   close + rng/2,
			Low:    close - rng/2,
			Close:  close,
			Volume: 1000,
		}
	}
	return bars
}

func TestTrueRange(t *testing.T) {
	bar := core.Bar{High: 105, Low: 100, Close: 103}

	// Previous close inside today's range: plain high-low.
	if tr := TrueRange(bar, 102); !almostEqual(tr, 5) {
		t.Errorf("expected 5, got %v", tr)
	}

	// Gap up: high minus previous close dominates.
	if tr := TrueRange(bar, 95); !almostEqual(tr, 10) {
		t.Errorf("expected 10, got %v", tr)
	}

	// Gap down: previous close minus low dominates.
	if tr := TrueRange(bar, 112); !almostEqual(tr, 12) {
		t.Errorf("expected 12, got %v", tr)
	}
}

func TestATRConstantRange(t *testing.T) {
	bars := flatBars(30, 100, 2)

	result := ATR(bars, 14)
	if len(result) != 16 {
		t.Fatalf("expected 16 values, got %d", len(result))
	}
	for i, v := range result {
		if !almostEqual(v, 2) {
			t.Errorf("index %d: expected ATR 2, got %v", i, v)
		}
	}
}

func TestATRInsufficientData(t *testing.T) {
	if got := ATR(flatBars(14, 100, 2), 14); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := ATR(flatBars(30, 100, 2), 0); len(got) != 0 {
		t.Errorf("expected empty result for zero period, got %v", got)
	}
}

func TestLastATR(t *testing.T) {
	last, ok := LastATR(flatBars(30, 100, 3), 14)
	if !ok {
		t.Fatal("expected a value")
	}
	if !almostEqual(last, 3) {
		t.Errorf("expected 3, got %v", last)
	}

	if _, ok := LastATR(flatBars(5, 100, 3), 14); ok {
		t.Error("expected no value on short input")
	}
}

func TestATRDeclinesWithShrinkingRange(t *testing.T) {
	// Ranges taper from 10 down to 1 while the close stays put, so the
	// smoothed ATR must trend down.
	bars := make([]core.Bar, 40)
	for i := range bars {
		rng := 10 - float64(i)*9/39
		bars[i] = core.Bar{
			High:   100 + rng/2,
			Low:    100 - rng/2,
			Close:  100,
			Volume: 1000,
		}
	}

	result := ATR(bars, 14)
	if len(result) < 2 {
		t.Fatalf("expected multiple values, got %d", len(result))
	}
	if result[len(result)-1] >= result[0] {
		t.Errorf("expected ATR to decline: first=%v last=%v", result[0], result[len(result)-1])
	}
}
