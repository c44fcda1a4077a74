package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/newthinker/vcpscan/internal/core"
)

type countingProvider struct {
	calls atomic.Int64
	err   error
}

func (p *countingProvider) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*core.Series, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &core.Series{Symbol: symbol, Bars: []core.Bar{{Close: 100, Volume: 1}}}, nil
}

func TestCacheMemoizes(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCache(provider)
	ctx := context.Background()

	first, err := cache.FetchHistory(ctx, "AAPL", 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.FetchHistory(ctx, "AAPL", 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", provider.calls.Load())
	}
	if first != second {
		t.Error("expected the memoized series instance")
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestCacheKeyIncludesLookback(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCache(provider)
	ctx := context.Background()

	cache.FetchHistory(ctx, "AAPL", 365)
	cache.FetchHistory(ctx, "AAPL", 30)

	if provider.calls.Load() != 2 {
		t.Errorf("different lookbacks must fetch separately, got %d calls", provider.calls.Load())
	}
}

func TestCacheDoesNotMemoizeFailures(t *testing.T) {
	provider := &countingProvider{err: core.ErrNoData}
	cache := NewCache(provider)
	ctx := context.Background()

	cache.FetchHistory(ctx, "AAPL", 365)
	cache.FetchHistory(ctx, "AAPL", 365)

	if provider.calls.Load() != 2 {
		t.Errorf("failed fetches must retry upstream, got %d calls", provider.calls.Load())
	}

	hits, misses := cache.Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("failures must not count as hits or misses, got %d/%d", hits, misses)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCache(provider)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.FetchHistory(ctx, "AAPL", 365); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	hits, misses := cache.Stats()
	if hits+misses != 50 {
		t.Errorf("expected 50 lookups accounted for, got %d hits and %d misses", hits, misses)
	}
}
