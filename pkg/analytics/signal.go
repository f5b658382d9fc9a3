package analytics

import (
	"fmt"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

// SignalConfig selects the pipeline run by a SignalGenerator snapshot.
type SignalConfig struct {
	Method Method
	Window int
	Kalman KalmanConfig

	// RunStationarity enables the ADF test and half-life estimate. They are
	// the expensive part of the pipeline and callers polling every bar
	// usually run them once per analysis window instead.
	RunStationarity bool

	// ADFLag fixes the ADF lag order; negative selects the default rule.
	ADFLag int
}

// DefaultSignalConfig returns the standard OLS pipeline configuration.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		Method:          MethodOLS,
		Window:          DefaultWindow,
		Kalman:          DefaultKalmanConfig(),
		RunStationarity: true,
		ADFLag:          -1,
	}
}

// Snapshot is one self-consistent analytics result for a pair: the hedge
// estimate, the spread it implies, rolling z-score and correlation, and
// (optionally) the stationarity verdict with half-life. This is the unit the
// alert, dashboard and backtest layers consume.
type Snapshot struct {
	Symbol1    string
	Symbol2    string
	Timestamps []int64

	Hedge       *HedgeEstimate
	Spread      []float64
	ZScore      *RollingSeries
	Correlation *RollingSeries

	Stationarity *StationarityVerdict
	HalfLife     *HalfLife

	Stats1 *PriceStats
	Stats2 *PriceStats

	// VWAPs are zero and liquidity metrics nil when the pair carries no
	// volume data.
	VWAP1      float64
	VWAP2      float64
	Liquidity1 *LiquidityMetrics
	Liquidity2 *LiquidityMetrics
}

// SignalGenerator composes the estimators into per-pair snapshots. It holds
// no state between calls: the same pair and config always produce identical
// snapshots, and concurrent calls with different inputs are safe.
type SignalGenerator struct{}

// NewSignalGenerator returns a stateless generator.
func NewSignalGenerator() *SignalGenerator {
	return &SignalGenerator{}
}

// Snapshot runs the full pipeline for one aligned pair. The first failing
// stage aborts the snapshot; no partial result is returned.
func (g *SignalGenerator) Snapshot(pair *series.PricePair, cfg SignalConfig) (*Snapshot, error) {
	if err := pair.Validate(); err != nil {
		return nil, fmt.Errorf("validate pair: %w", err)
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	var (
		hedge *HedgeEstimate
		err   error
	)
	switch cfg.Method {
	case MethodKalman:
		hedge, err = AdaptiveHedgeFilter(pair, cfg.Kalman)
	case MethodOLS, MethodRobust:
		hedge, err = Fit(pair, cfg.Method)
	default:
		return nil, fmt.Errorf("%w: method %q", ErrInvalidParameter, cfg.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("hedge fit: %w", err)
	}

	spread, err := ComputeSpread(pair, hedge)
	if err != nil {
		return nil, fmt.Errorf("spread: %w", err)
	}

	zscore, err := RollingZScore(spread, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("z-score: %w", err)
	}

	correlation, err := RollingCorrelation(pair.Prices1, pair.Prices2, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}

	snap := &Snapshot{
		Symbol1:     pair.Symbol1,
		Symbol2:     pair.Symbol2,
		Timestamps:  pair.Timestamps,
		Hedge:       hedge,
		Spread:      spread,
		ZScore:      zscore,
		Correlation: correlation,
	}

	if cfg.RunStationarity {
		verdict, err := ADFTest(spread, cfg.ADFLag)
		if err != nil {
			return nil, fmt.Errorf("stationarity: %w", err)
		}
		snap.Stationarity = verdict

		halfLife, err := ComputeHalfLife(spread)
		if err != nil {
			return nil, fmt.Errorf("half-life: %w", err)
		}
		snap.HalfLife = halfLife
	}

	if snap.Stats1, err = ComputePriceStats(pair.Prices1); err != nil {
		return nil, fmt.Errorf("price stats %s: %w", pair.Symbol1, err)
	}
	if snap.Stats2, err = ComputePriceStats(pair.Prices2); err != nil {
		return nil, fmt.Errorf("price stats %s: %w", pair.Symbol2, err)
	}

	if pair.Volumes1 != nil && pair.Volumes2 != nil {
		if snap.VWAP1, err = VWAP(pair.Prices1, pair.Volumes1); err != nil {
			return nil, fmt.Errorf("vwap %s: %w", pair.Symbol1, err)
		}
		if snap.VWAP2, err = VWAP(pair.Prices2, pair.Volumes2); err != nil {
			return nil, fmt.Errorf("vwap %s: %w", pair.Symbol2, err)
		}
		if pair.Len() > cfg.Window {
			if snap.Liquidity1, err = ComputeLiquidityMetrics(pair.Volumes1, cfg.Window); err != nil {
				return nil, fmt.Errorf("liquidity %s: %w", pair.Symbol1, err)
			}
			if snap.Liquidity2, err = ComputeLiquidityMetrics(pair.Volumes2, cfg.Window); err != nil {
				return nil, fmt.Errorf("liquidity %s: %w", pair.Symbol2, err)
			}
		}
	}

	return snap, nil
}
