package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

// EngineConfig holds the strategy parameters for one backtest run.
type EngineConfig struct {
	// EntryThreshold enters short spread above +threshold and long spread
	// below -threshold. Default 2.0.
	EntryThreshold float64

	// ExitThreshold closes the position when |z| falls below it. Default 0.5.
	ExitThreshold float64

	// MaxHoldingBars forces an exit once a position has been held that many
	// bars. 0 disables the limit.
	MaxHoldingBars int

	// CostRate is charged per side on the traded notional
	// (price1 + |ratio|*price2) at entry and exit.
	CostRate float64

	// StopLoss closes the position when the open PnL falls to -StopLoss or
	// worse; TakeProfit closes at +TakeProfit or better. 0 disables either
	// bound. Both are checked before the signal exit.
	StopLoss   float64
	TakeProfit float64

	// MinValidBars is the minimum number of defined z-score entries required
	// to run. Defaults to the analytics window default.
	MinValidBars int

	// BarsPerYear annualizes the Sharpe/Sortino ratios. Use BarsPerYear()
	// to derive it from a bar interval. Default 252.
	BarsPerYear float64
}

// DefaultEngineConfig returns the standard mean-reversion parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EntryThreshold: 2.0,
		ExitThreshold:  0.5,
		MinValidBars:   analytics.DefaultWindow,
		BarsPerYear:    252,
	}
}

// BarsPerYear converts a bar interval to the number of periods per year for
// a continuously traded market.
func BarsPerYear(interval time.Duration) float64 {
	if interval <= 0 {
		return 252
	}
	return float64(365*24*time.Hour) / float64(interval)
}

// Engine runs one backtest. An instance owns its position and ledger state
// exclusively for the duration of a run and must not be shared between two
// logical runs; create one engine per run (or per grid point).
type Engine struct {
	cfg EngineConfig

	position    Position
	open        Trade
	entryIndex  int
	realizedPnL float64
	trades      []Trade
	equity      []EquityPoint
}

// NewEngine creates an engine with validated configuration.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.EntryThreshold <= 0 {
		return nil, fmt.Errorf("%w: entry threshold must be > 0", analytics.ErrInvalidParameter)
	}
	if cfg.ExitThreshold < 0 || cfg.ExitThreshold >= cfg.EntryThreshold {
		return nil, fmt.Errorf("%w: exit threshold must be in [0, entry)", analytics.ErrInvalidParameter)
	}
	if cfg.CostRate < 0 || cfg.StopLoss < 0 || cfg.TakeProfit < 0 {
		return nil, fmt.Errorf("%w: cost, stop-loss and take-profit must be >= 0", analytics.ErrInvalidParameter)
	}
	if cfg.MinValidBars <= 0 {
		cfg.MinValidBars = analytics.DefaultWindow
	}
	if cfg.BarsPerYear <= 0 {
		cfg.BarsPerYear = 252
	}
	return &Engine{cfg: cfg}, nil
}

// Run replays the pair through the state machine. The z-score series must be
// aligned to the pair; undefined z-score bars permit no entries but are not
// an error. An open position left at the last bar is force-closed there so
// the ledger always accounts for the full equity curve.
func (e *Engine) Run(pair *series.PricePair, zscore *analytics.RollingSeries, hedge *analytics.HedgeEstimate) (*Result, error) {
	if err := pair.Validate(); err != nil {
		return nil, fmt.Errorf("validate pair: %w", err)
	}
	n := pair.Len()
	if zscore.Len() != n {
		return nil, fmt.Errorf("%w: %d z-scores vs %d bars", analytics.ErrLengthMismatch, zscore.Len(), n)
	}
	if hedge.RatioSeries != nil && len(hedge.RatioSeries) != n {
		return nil, fmt.Errorf("%w: %d hedge ratios vs %d bars", analytics.ErrLengthMismatch, len(hedge.RatioSeries), n)
	}
	if valid := zscore.DefinedCount(); valid < e.cfg.MinValidBars {
		return nil, fmt.Errorf("%w: need >= %d valid z-score bars, got %d", analytics.ErrInsufficientData, e.cfg.MinValidBars, valid)
	}

	e.reset(n)
	started := time.Now()

	for i := 0; i < n; i++ {
		if e.position == PositionFlat {
			e.tryEnter(pair, zscore, hedge, i)
		} else {
			e.tryExit(pair, zscore, i)
		}

		e.equity = append(e.equity, EquityPoint{
			Timestamp: pair.Timestamps[i],
			Equity:    e.realizedPnL + e.unrealized(pair, i),
		})
	}

	// Force-close a position left open at the end of the data so the sum of
	// sealed trade PnLs matches the final equity point.
	if e.position != PositionFlat {
		last := n - 1
		e.seal(pair, last, ExitEndOfData)
		e.equity[last].Equity = e.realizedPnL
	}

	result := &Result{
		Trades:      e.trades,
		EquityCurve: e.equity,
		StartTime:   started,
		EndTime:     time.Now(),
	}
	result.Duration = result.EndTime.Sub(result.StartTime)
	computeMetrics(result, e.cfg.BarsPerYear)
	return result, nil
}

func (e *Engine) reset(n int) {
	e.position = PositionFlat
	e.open = Trade{}
	e.entryIndex = 0
	e.realizedPnL = 0
	e.trades = make([]Trade, 0, 16)
	e.equity = make([]EquityPoint, 0, n)
}

func (e *Engine) tryEnter(pair *series.PricePair, zscore *analytics.RollingSeries, hedge *analytics.HedgeEstimate, i int) {
	if !zscore.Defined[i] {
		return
	}
	// A position opened on the final bar could only close on that same bar,
	// which would seal a zero-duration trade.
	if i == pair.Len()-1 {
		return
	}

	z := zscore.Values[i]
	var direction Position
	switch {
	case z > e.cfg.EntryThreshold:
		direction = PositionShortSpread
	case z < -e.cfg.EntryThreshold:
		direction = PositionLongSpread
	default:
		return
	}

	e.position = direction
	e.entryIndex = i
	e.open = Trade{
		Direction:   direction,
		EntryTime:   pair.Timestamps[i],
		EntryPrice1: pair.Prices1[i],
		EntryPrice2: pair.Prices2[i],
		EntryRatio:  hedge.RatioAt(i),
	}
}

func (e *Engine) tryExit(pair *series.PricePair, zscore *analytics.RollingSeries, i int) {
	holding := i - e.entryIndex
	gross := e.grossPnL(pair.Prices1[i], pair.Prices2[i])

	// Stop-loss/take-profit take precedence over the signal exit; the max
	// holding budget is the final fallback.
	switch {
	case e.cfg.StopLoss > 0 && gross <= -e.cfg.StopLoss:
		e.seal(pair, i, ExitStopLoss)
	case e.cfg.TakeProfit > 0 && gross >= e.cfg.TakeProfit:
		e.seal(pair, i, ExitTakeProfit)
	case zscore.Defined[i] && math.Abs(zscore.Values[i]) < e.cfg.ExitThreshold:
		e.seal(pair, i, ExitSignal)
	case e.cfg.MaxHoldingBars > 0 && holding >= e.cfg.MaxHoldingBars:
		e.seal(pair, i, ExitMaxHolding)
	}
}

// grossPnL marks the open position to market before costs.
func (e *Engine) grossPnL(price1, price2 float64) float64 {
	pnl := (price1 - e.open.EntryPrice1) - e.open.EntryRatio*(price2-e.open.EntryPrice2)
	if e.position == PositionShortSpread {
		pnl = -pnl
	}
	return pnl
}

func (e *Engine) seal(pair *series.PricePair, i int, reason ExitReason) {
	price1 := pair.Prices1[i]
	price2 := pair.Prices2[i]

	trade := e.open
	trade.ExitTime = pair.Timestamps[i]
	trade.ExitPrice1 = price1
	trade.ExitPrice2 = price2
	trade.ExitReason = reason
	trade.HoldingBars = i - e.entryIndex

	entryNotional := trade.EntryPrice1 + math.Abs(trade.EntryRatio)*trade.EntryPrice2
	exitNotional := price1 + math.Abs(trade.EntryRatio)*price2
	cost := e.cfg.CostRate * (entryNotional + exitNotional)

	trade.PnL = e.grossPnL(price1, price2) - cost
	if entryNotional > 0 {
		trade.ReturnPct = trade.PnL / entryNotional * 100
	}

	e.trades = append(e.trades, trade)
	e.realizedPnL += trade.PnL
	e.position = PositionFlat
	e.open = Trade{}
}

func (e *Engine) unrealized(pair *series.PricePair, i int) float64 {
	if e.position == PositionFlat {
		return 0
	}
	return e.grossPnL(pair.Prices1[i], pair.Prices2[i])
}
