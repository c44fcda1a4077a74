package marketctx

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/marketdata"
)

// DefaultSectorMap maps tickers to their sector ETF proxy. Symbols not
// listed compare against the broad-market proxy.
var DefaultSectorMap = map[string]string{
	"AAPL": "XLK", "MSFT": "XLK", "NVDA": "XLK",
	"XOM": "XLE", "CVX": "XLE",
	"JPM": "XLF", "GS": "XLF",
	"PFE": "XLV", "JNJ": "XLV",
}

// BroadMarketProxy is the fallback comparison symbol.
const BroadMarketProxy = "SPY"

// Sector compares a symbol's cumulative return against its sector
// proxy over the same window.
type Sector struct {
	data         marketdata.Provider
	sectorMap    map[string]string
	lookbackDays int
	logger       *zap.Logger
}

// NewSector creates a sector relative-strength scorer. A nil sectorMap
// uses the default table.
func NewSector(data marketdata.Provider, sectorMap map[string]string, lookbackDays int, logger *zap.Logger) *Sector {
	if sectorMap == nil {
		sectorMap = DefaultSectorMap
	}
	if lookbackDays <= 0 {
		lookbackDays = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sector{
		data:         data,
		sectorMap:    sectorMap,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// Proxy returns the sector ETF used for comparison.
func (s *Sector) Proxy(symbol string) string {
	if proxy, ok := s.sectorMap[strings.ToUpper(symbol)]; ok {
		return proxy
	}
	return BroadMarketProxy
}

// Outperforms reports whether the symbol's cumulative percent change
// beat its sector proxy over the lookback window. Proxy fetches are
// shared across symbols in the same sector via the run cache.
func (s *Sector) Outperforms(ctx context.Context, symbol string) (bool, error) {
	series, err := s.data.FetchHistory(ctx, symbol, s.lookbackDays)
	if err != nil {
		return false, err
	}

	proxy := s.Proxy(symbol)
	proxySeries, err := s.data.FetchHistory(ctx, proxy, s.lookbackDays)
	if err != nil {
		s.logger.Debug("sector proxy unavailable",
			zap.String("symbol", symbol),
			zap.String("proxy", proxy),
			zap.Error(err),
		)
		return false, err
	}

	return series.CumulativeReturn() > proxySeries.CumulativeReturn(), nil
}
