package backtest

import (
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-walkforward/internal/indicator"
	"github.com/rxtech-lab/argo-walkforward/internal/logger"
	"github.com/rxtech-lab/argo-walkforward/internal/strategy"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"go.uber.org/zap"
)

// Result holds everything one run produces: the trade log, the per-bar
// realized equity curve, and the derived metrics summary.
type Result struct {
	// ID uniquely identifies this run.
	ID string
	// Params is the parameter set the run was executed with.
	Params types.ParameterSet
	// Metrics is the summary derived once at run end.
	Metrics types.RunMetrics
	// Trades is the append-only trade log.
	Trades []types.Trade
	// EquityCurve samples realized P&L after every evaluated bar.
	EquityCurve []types.EquityPoint
}

// Runner drives one bar series through the indicator calculator, the
// strategy and the position state machine for a single parameter set. A
// Runner is stateless across runs and safe to reuse; each Run creates its own
// isolated TradingState.
type Runner struct {
	params   types.ParameterSet
	strategy strategy.Strategy
	logger   *logger.Logger
}

// NewRunner creates a runner for one parameter set. Invalid parameters fail
// fast here, before any run starts.
func NewRunner(params types.ParameterSet, strat strategy.Strategy, log *logger.Logger) (*Runner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		strat = strategy.NewMeanReversion(params.BandMultiplier)
	}

	return &Runner{
		params:   params,
		strategy: strat,
		logger:   log,
	}, nil
}

// Run executes the backtest over the given bar series. Bars are processed
// strictly in order, one state mutation at a time. A series shorter than the
// window yields zero trades and all-zero metrics, not an error. A position
// still open at the end of the series stays unrealized and is excluded from
// the realized P&L.
func (r *Runner) Run(bars []types.Bar) (*Result, error) {
	state := NewTradingState()
	period := r.params.WindowPeriod

	result := &Result{
		ID:     uuid.New().String(),
		Params: r.params,
	}

	window := indicator.NewRollingWindow(period)
	for i := 0; i < period && i < len(bars); i++ {
		window.Push(bars[i].Close)
	}

	// The first evaluated bar is index window_period: earlier bars lack
	// sufficient history.
	for i := period; i < len(bars); i++ {
		bar := bars[i]
		window.Push(bar.Close)

		sma := window.Mean()
		std := window.Std()

		signal := r.strategy.Evaluate(strategy.EvalContext{
			Bar:      bar,
			Index:    i,
			SMA:      sma,
			Std:      std,
			Position: state.Position(),
		})

		if signal != types.SignalTypeNoAction {
			previousPosition := state.Position()

			trade, err := state.ApplySignal(signal, bar)
			if err != nil {
				return nil, err
			}

			r.logSignal(signal, previousPosition, bar, sma, std, trade.TakeOr(types.Trade{}))
		}

		state.UpdateDrawdown()

		result.EquityCurve = append(result.EquityCurve, types.EquityPoint{
			Time:   bar.Time,
			Equity: state.TotalPnL(),
		})
	}

	result.Trades = state.Trades()
	result.Metrics = state.Metrics()
	result.Metrics.BuyAndHoldPnL = buyAndHoldPnL(bars)

	return result, nil
}

func (r *Runner) logSignal(signal types.SignalType, previousPosition types.PositionType, bar types.Bar, sma, std float64, trade types.Trade) {
	upper, lower := indicator.Bands(sma, std, r.params.BandMultiplier)

	switch signal {
	case types.SignalTypeEnterLong:
		r.logger.Info("BUY",
			zap.Time("time", bar.Time),
			zap.Float64("price", bar.Close),
			zap.Float64("sma", sma),
			zap.Float64("lower_band", lower),
		)
	case types.SignalTypeEnterShort:
		r.logger.Info("SHORT",
			zap.Time("time", bar.Time),
			zap.Float64("price", bar.Close),
			zap.Float64("sma", sma),
			zap.Float64("upper_band", upper),
		)
	case types.SignalTypeExit:
		event := "SELL"
		if previousPosition == types.PositionTypeShort {
			event = "COVER"
		}

		r.logger.Info(event,
			zap.Time("time", bar.Time),
			zap.Float64("price", bar.Close),
			zap.Float64("entry", trade.EntryPrice),
			zap.Float64("pnl", trade.PnL),
		)
	}
}

// buyAndHoldPnL is the benchmark of buying at the first bar's close and
// holding to the last.
func buyAndHoldPnL(bars []types.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}

	return bars[len(bars)-1].Close - bars[0].Close
}
