package marketctx

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/core"
	"github.com/newthinker/vcpscan/internal/marketdata"
)

// Component weights for the institutional score.
const (
	darkPoolWeight = 0.3
	optionsWeight  = 0.7
)

// darkPoolBaseline stands in until a dark pool data source is wired.
// TODO: replace with a real dark pool activity feed once one is
// available on the data plan.
const darkPoolBaseline = 50.0

// Institutional estimates institutional accumulation from options
// open-interest activity combined with a dark pool component.
type Institutional struct {
	options marketdata.OptionsProvider
	logger  *zap.Logger
}

// NewInstitutional creates an institutional strength scorer.
func NewInstitutional(options marketdata.OptionsProvider, logger *zap.Logger) *Institutional {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Institutional{options: options, logger: logger}
}

// Score returns the 0-100 institutional strength value. Absent options
// data degrades that component to 0 here, explicitly, rather than
// failing the symbol; any other provider failure also degrades since
// institutional flow is a supporting factor, not a gate.
func (i *Institutional) Score(ctx context.Context, symbol string) float64 {
	optionsScore := 0.0

	ratio, err := i.options.FetchCallPutRatio(ctx, symbol)
	switch {
	case err == nil:
		optionsScore = ratio
	case errors.Is(err, core.ErrNoData):
		i.logger.Debug("no options data", zap.String("symbol", symbol))
	default:
		i.logger.Debug("options fetch failed",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}

	return darkPoolBaseline*darkPoolWeight + optionsScore*optionsWeight
}
