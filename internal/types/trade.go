package types

import "time"

// Trade is one realized round trip. It is created when a position closes and
// appended to the run's trade log; a position still open at the end of a run
// never produces a Trade.
type Trade struct {
	EntryTime  time.Time    `csv:"entry_time" yaml:"entry_time"`
	ExitTime   time.Time    `csv:"exit_time" yaml:"exit_time"`
	Side       PositionType `csv:"side" yaml:"side"`
	EntryPrice float64      `csv:"entry_price" yaml:"entry_price"`
	ExitPrice  float64      `csv:"exit_price" yaml:"exit_price"`
	// PnL is the realized profit and loss for this trade.
	// Long trades realize exit - entry, short trades entry - exit.
	PnL float64 `csv:"pnl" yaml:"pnl"`
}
