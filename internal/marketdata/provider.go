package marketdata

import (
	"context"

	"github.com/newthinker/vcpscan/internal/core"
)

// Provider fetches daily OHLCV history for a symbol. Implementations
// return core.ErrNoData when the service has nothing for the symbol and
// core.ErrDataUnavailable once retries are exhausted; callers treat
// either as "skip this symbol".
type Provider interface {
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*core.Series, error)
}

// OptionsProvider fetches options open-interest activity used by the
// institutional scorer.
type OptionsProvider interface {
	// FetchCallPutRatio returns the mean open-interest/volume ratio
	// across the symbol's listed contracts. Returns core.ErrNoData when
	// the symbol has no options data; the caller decides the
	// substitution policy.
	FetchCallPutRatio(ctx context.Context, symbol string) (float64, error)
}
