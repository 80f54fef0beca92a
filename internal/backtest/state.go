package backtest

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-walkforward/internal/types"
	"github.com/rxtech-lab/argo-walkforward/pkg/errors"
	"github.com/shopspring/decimal"
)

// TradingState owns all mutable trading state for one run: the open
// position, the realized P&L accounting, the equity peak and drawdown, and
// the append-only trade log. Exactly one TradingState exists per run; it is
// created by the runner and discarded after metrics extraction.
//
// P&L sums are accumulated with decimal arithmetic so the realized total is
// always the exact sum of the logged trade P&Ls.
type TradingState struct {
	position   types.PositionType
	entryPrice float64
	entryTime  time.Time

	totalPnL    decimal.Decimal
	totalWins   decimal.Decimal
	totalLosses decimal.Decimal

	peakEquity  decimal.Decimal
	maxDrawdown decimal.Decimal

	totalTrades   int
	winningTrades int
	losingTrades  int

	trades []types.Trade
}

// NewTradingState creates a fresh flat state.
func NewTradingState() *TradingState {
	return &TradingState{
		position:    types.PositionTypeFlat,
		totalPnL:    decimal.Zero,
		totalWins:   decimal.Zero,
		totalLosses: decimal.Zero,
		peakEquity:  decimal.Zero,
		maxDrawdown: decimal.Zero,
	}
}

// Position returns the currently open position side.
func (s *TradingState) Position() types.PositionType {
	return s.position
}

// EntryPrice returns the open position's entry price. It is defined iff the
// position is not flat.
func (s *TradingState) EntryPrice() optional.Option[float64] {
	if s.position == types.PositionTypeFlat {
		return optional.None[float64]()
	}

	return optional.Some(s.entryPrice)
}

// TotalPnL returns the realized P&L so far. Open positions are excluded.
func (s *TradingState) TotalPnL() float64 {
	result, _ := s.totalPnL.Float64()

	return result
}

// PeakEquity returns the highest realized P&L reached so far.
func (s *TradingState) PeakEquity() float64 {
	result, _ := s.peakEquity.Float64()

	return result
}

// MaxDrawdown returns the largest gap between peak equity and realized P&L
// observed so far.
func (s *TradingState) MaxDrawdown() float64 {
	result, _ := s.maxDrawdown.Float64()

	return result
}

// Trades returns the append-only trade log.
func (s *TradingState) Trades() []types.Trade {
	return s.trades
}

// ApplySignal applies a strategy intent at the given bar's close. When the
// signal closes a position it returns the realized trade.
func (s *TradingState) ApplySignal(signal types.SignalType, bar types.Bar) (optional.Option[types.Trade], error) {
	switch signal {
	case types.SignalTypeNoAction:
		return optional.None[types.Trade](), nil

	case types.SignalTypeEnterLong:
		if s.position != types.PositionTypeFlat {
			return optional.None[types.Trade](), errors.Newf(errors.ErrCodeStateViolation, "cannot enter long from %s", s.position)
		}

		s.position = types.PositionTypeLong
		s.entryPrice = bar.Close
		s.entryTime = bar.Time

		return optional.None[types.Trade](), nil

	case types.SignalTypeEnterShort:
		if s.position != types.PositionTypeFlat {
			return optional.None[types.Trade](), errors.Newf(errors.ErrCodeStateViolation, "cannot enter short from %s", s.position)
		}

		s.position = types.PositionTypeShort
		s.entryPrice = bar.Close
		s.entryTime = bar.Time

		return optional.None[types.Trade](), nil

	case types.SignalTypeExit:
		if s.position == types.PositionTypeFlat {
			return optional.None[types.Trade](), errors.New(errors.ErrCodeStateViolation, "cannot exit with no open position")
		}

		return optional.Some(s.closePosition(bar)), nil

	default:
		return optional.None[types.Trade](), errors.Newf(errors.ErrCodeInvalidSignal, "unknown signal type %q", signal)
	}
}

func (s *TradingState) closePosition(bar types.Bar) types.Trade {
	entryDec := decimal.NewFromFloat(s.entryPrice)
	exitDec := decimal.NewFromFloat(bar.Close)

	var pnlDec decimal.Decimal
	if s.position == types.PositionTypeLong {
		pnlDec = exitDec.Sub(entryDec)
	} else {
		// short pnl is the opposite of long pnl
		pnlDec = entryDec.Sub(exitDec)
	}

	pnl, _ := pnlDec.Float64()

	trade := types.Trade{
		EntryTime:  s.entryTime,
		ExitTime:   bar.Time,
		Side:       s.position,
		EntryPrice: s.entryPrice,
		ExitPrice:  bar.Close,
		PnL:        pnl,
	}

	s.totalTrades++

	if pnlDec.GreaterThan(decimal.Zero) {
		s.winningTrades++
		s.totalWins = s.totalWins.Add(pnlDec)
	} else {
		s.losingTrades++
		s.totalLosses = s.totalLosses.Add(pnlDec.Abs())
	}

	s.totalPnL = s.totalPnL.Add(pnlDec)
	s.trades = append(s.trades, trade)

	s.position = types.PositionTypeFlat
	s.entryPrice = 0
	s.entryTime = time.Time{}

	return trade
}

// UpdateDrawdown advances the peak equity and max drawdown tracking. It must
// be called after every bar, not only on trade realization, so both values
// are monotonically non-decreasing over the run.
func (s *TradingState) UpdateDrawdown() {
	if s.totalPnL.GreaterThan(s.peakEquity) {
		s.peakEquity = s.totalPnL
	}

	drawdown := s.peakEquity.Sub(s.totalPnL)
	if drawdown.GreaterThan(s.maxDrawdown) {
		s.maxDrawdown = drawdown
	}
}

// Metrics derives the read-only run summary from the accumulated state.
func (s *TradingState) Metrics() types.RunMetrics {
	metrics := types.RunMetrics{
		TotalTrades:   s.totalTrades,
		WinningTrades: s.winningTrades,
		LosingTrades:  s.losingTrades,
		MaxDrawdown:   s.MaxDrawdown(),
		TotalPnL:      s.TotalPnL(),
	}

	if s.totalTrades == 0 {
		return metrics
	}

	totalWins, _ := s.totalWins.Float64()
	totalLosses, _ := s.totalLosses.Float64()

	metrics.WinRate = float64(s.winningTrades) / float64(s.totalTrades) * 100

	if s.winningTrades > 0 {
		metrics.AvgWin = totalWins / float64(s.winningTrades)
	}

	if s.losingTrades > 0 {
		metrics.AvgLoss = totalLosses / float64(s.losingTrades)
	}

	switch {
	case s.winningTrades > 0 && s.losingTrades > 0:
		metrics.ProfitFactor = totalWins / totalLosses
	case s.winningTrades > 0:
		// All wins, no losses: the ratio is undefined
		metrics.ProfitFactor = types.ProfitFactorNoLosses
	default:
		metrics.ProfitFactor = 0
	}

	lossRate := float64(s.losingTrades) / float64(s.totalTrades) * 100
	metrics.Expectancy = (metrics.WinRate/100)*metrics.AvgWin - (lossRate/100)*metrics.AvgLoss

	for _, trade := range s.trades {
		if trade.PnL > 0 && trade.PnL > metrics.LargestWin {
			metrics.LargestWin = trade.PnL
		}

		if trade.PnL < metrics.LargestLoss {
			metrics.LargestLoss = trade.PnL
		}
	}

	return metrics
}
