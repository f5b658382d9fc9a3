// Package backtest replays an aligned price pair bar-by-bar through a
// position state machine driven by the z-score signal, producing a trade
// ledger, an equity curve and performance metrics.
package backtest

import (
	"time"
)

// Position is the engine's state: flat, long the spread (long leg 1, short
// ratio units of leg 2) or short the spread (the mirror).
type Position int

const (
	PositionFlat Position = iota
	PositionLongSpread
	PositionShortSpread
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PositionLongSpread:
		return "LONG_SPREAD"
	case PositionShortSpread:
		return "SHORT_SPREAD"
	default:
		return "FLAT"
	}
}

// ExitReason records why a trade was closed. Forced exits are flagged
// distinctly from signal-based exits.
type ExitReason string

const (
	ExitSignal     ExitReason = "signal"
	ExitMaxHolding ExitReason = "max_holding"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is one round trip. It is created when a position opens and sealed
// (all exit fields populated) when it closes; sealed trades are immutable.
// The hedge ratio is frozen at entry, so later ratio drift never changes an
// open trade's sizing.
type Trade struct {
	Direction   Position
	EntryTime   int64
	EntryPrice1 float64
	EntryPrice2 float64
	EntryRatio  float64
	ExitTime    int64
	ExitPrice1  float64
	ExitPrice2  float64
	ExitReason  ExitReason
	PnL         float64
	ReturnPct   float64
	HoldingBars int
}

// EquityPoint is one bar of the cumulative PnL curve: realized PnL of all
// sealed trades plus the open position marked to market at that bar.
type EquityPoint struct {
	Timestamp int64
	Equity    float64
}

// Result is the full output of one backtest run, owned by the caller.
type Result struct {
	Trades      []Trade
	EquityCurve []EquityPoint

	TotalPnL     float64
	AvgPnL       float64
	WinRate      float64
	SharpeRatio  float64
	SortinoRatio float64
	ProfitFactor float64
	MaxDrawdown  float64

	TotalTrades int
	WinTrades   int
	LossTrades  int
	MaxWin      float64
	MaxLoss     float64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
