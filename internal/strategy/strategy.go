package strategy

import (
	"github.com/rxtech-lab/argo-walkforward/internal/types"
)

// EvalContext is everything a strategy sees for one bar: the bar itself, its
// index in the series, the rolling indicators computed over the trailing
// window, and the currently open position.
type EvalContext struct {
	Bar      types.Bar
	Index    int
	SMA      float64
	Std      float64
	Position types.PositionType
}

// Strategy maps one bar plus its rolling indicators and the open position to
// an entry/exit intent. Implementations must be deterministic and side-effect
// free; the engine owns all trading state. New strategies plug in by
// implementing this interface, never by changing the runner or the state
// machine.
type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	// Evaluate returns the intent for the current bar
	Evaluate(ctx EvalContext) types.SignalType
}
