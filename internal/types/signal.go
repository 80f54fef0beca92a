package types

type SignalType string

const (
	// SignalTypeEnterLong is a signal that tells the engine to open a long position
	SignalTypeEnterLong SignalType = "enter_long"
	// SignalTypeEnterShort is a signal that tells the engine to open a short position
	SignalTypeEnterShort SignalType = "enter_short"
	// SignalTypeExit is a signal that tells the engine to close the open position
	SignalTypeExit SignalType = "exit"
	// SignalTypeNoAction is a signal that tells the engine to take no action
	SignalTypeNoAction SignalType = "no_action"
)

type PositionType string

const (
	PositionTypeFlat  PositionType = "FLAT"
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)
