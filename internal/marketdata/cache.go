package marketdata

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/newthinker/vcpscan/internal/core"
)

type cacheKey struct {
	symbol   string
	lookback int
}

// Cache memoizes history fetches for the lifetime of one scan or
// backtest run. Construct one per run and discard it with the run; it
// is not a process-lifetime cache. Failed fetches are not memoized.
//
// Concurrent misses for the same key may fetch redundantly; the data is
// immutable per run so this costs a request, not correctness.
type Cache struct {
	provider Provider

	mu      sync.RWMutex
	entries map[cacheKey]*core.Series

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache wraps a provider with run-scoped memoization.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		entries:  make(map[cacheKey]*core.Series),
	}
}

// FetchHistory returns the memoized series for (symbol, lookbackDays)
// or delegates to the wrapped provider on a miss.
func (c *Cache) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*core.Series, error) {
	key := cacheKey{symbol: symbol, lookback: lookbackDays}

	c.mu.RLock()
	series, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return series, nil
	}

	series, err := c.provider.FetchHistory(ctx, symbol, lookbackDays)
	if err != nil {
		return nil, err
	}

	c.misses.Add(1)
	c.mu.Lock()
	c.entries[key] = series
	c.mu.Unlock()

	return series, nil
}

// Stats reports hit and miss counts for metrics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
