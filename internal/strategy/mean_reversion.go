package strategy

import (
	"github.com/rxtech-lab/argo-walkforward/internal/indicator"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
)

// MeanReversion is the reference band strategy: enter long when the close
// drops below the lower band, enter short when it rises above the upper band,
// exit when the close crosses back over the mean. Positions only exit on the
// mean crossing; there is no reversal on an opposite entry signal while a
// position is open.
type MeanReversion struct {
	bandMultiplier float64
}

// NewMeanReversion creates the reference mean reversion strategy.
func NewMeanReversion(bandMultiplier float64) Strategy {
	return &MeanReversion{
		bandMultiplier: bandMultiplier,
	}
}

// Name returns the name of the strategy.
func (m *MeanReversion) Name() string {
	return "mean_reversion"
}

// Evaluate implements Strategy.
func (m *MeanReversion) Evaluate(ctx EvalContext) types.SignalType {
	// Degenerate or insufficient data: a zero mean or zero deviation means
	// the window is not ready or the series is flat, skip the bar.
	if ctx.SMA == 0 || ctx.Std == 0 {
		return types.SignalTypeNoAction
	}

	upper, lower := indicator.Bands(ctx.SMA, ctx.Std, m.bandMultiplier)
	price := ctx.Bar.Close

	switch ctx.Position {
	case types.PositionTypeFlat:
		if price < lower {
			return types.SignalTypeEnterLong
		}

		if price > upper {
			return types.SignalTypeEnterShort
		}
	case types.PositionTypeLong:
		if price >= ctx.SMA {
			return types.SignalTypeExit
		}
	case types.PositionTypeShort:
		if price <= ctx.SMA {
			return types.SignalTypeExit
		}
	}

	return types.SignalTypeNoAction
}
