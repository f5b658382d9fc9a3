package analytics

import (
	"fmt"
	"math"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
	"github.com/yourusername/pairtrade-analytics/pkg/stats"
)

// DefaultWindow is the default rolling window for z-scores and correlations.
const DefaultWindow = 20

// RollingSeries is a windowed statistic aligned to its input series.
// Defined[i] is false for positions where the statistic is undefined: the
// cold window at the start, or a zero-dispersion window mid-series. Values
// at undefined positions are zero and must not be read as signals.
type RollingSeries struct {
	Values  []float64
	Defined []bool
}

// Len returns the series length.
func (r *RollingSeries) Len() int {
	return len(r.Values)
}

// DefinedCount returns how many entries carry a defined value.
func (r *RollingSeries) DefinedCount() int {
	count := 0
	for _, d := range r.Defined {
		if d {
			count++
		}
	}
	return count
}

// Last returns the most recent defined value.
func (r *RollingSeries) Last() (float64, bool) {
	for i := len(r.Values) - 1; i >= 0; i-- {
		if r.Defined[i] {
			return r.Values[i], true
		}
	}
	return 0, false
}

// ComputeSpread builds the hedged residual series
// price1 - ratio*price2 - intercept. A static estimate broadcasts its scalar
// ratio; a Kalman estimate is matched positionally and must cover every bar.
func ComputeSpread(pair *series.PricePair, hedge *HedgeEstimate) ([]float64, error) {
	n := pair.Len()
	if len(pair.Prices1) != n || len(pair.Prices2) != n {
		return nil, fmt.Errorf("%w: pair slices disagree", ErrLengthMismatch)
	}
	if hedge.RatioSeries != nil && len(hedge.RatioSeries) != n {
		return nil, fmt.Errorf("%w: %d ratios vs %d bars", ErrLengthMismatch, len(hedge.RatioSeries), n)
	}

	spread := make([]float64, n)
	for i := 0; i < n; i++ {
		ratio := hedge.Ratio
		if hedge.RatioSeries != nil {
			ratio = hedge.RatioSeries[i]
		}
		spread[i] = pair.Prices1[i] - ratio*pair.Prices2[i] - hedge.Intercept
		if !isFinite(spread[i]) {
			return nil, fmt.Errorf("%w: non-finite spread at bar %d", ErrNumericInstability, i)
		}
	}
	return spread, nil
}

// RollingZScore normalizes a spread against its own rolling mean and
// standard deviation. The first window-1 entries are undefined, as is any
// position whose window has zero dispersion (no-signal, never infinity).
func RollingZScore(spread []float64, window int) (*RollingSeries, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: window must be >= 2, got %d", ErrInvalidParameter, window)
	}
	if len(spread) < window {
		return nil, fmt.Errorf("%w: need >= %d points, got %d", ErrInsufficientData, window, len(spread))
	}

	out := &RollingSeries{
		Values:  make([]float64, len(spread)),
		Defined: make([]bool, len(spread)),
	}

	for i := window - 1; i < len(spread); i++ {
		win := spread[i-window+1 : i+1]
		mean := stats.Mean(win)
		std := stats.SampleStdDev(win)
		if std < 1e-10 {
			continue
		}
		z := (spread[i] - mean) / std
		if !isFinite(z) {
			return nil, fmt.Errorf("%w: non-finite z-score at bar %d", ErrNumericInstability, i)
		}
		out.Values[i] = z
		out.Defined[i] = true
	}

	return out, nil
}

// RollingCorrelation computes the windowed Pearson correlation of the two
// legs. Entries are undefined over the cold window and wherever either leg
// has no dispersion.
func RollingCorrelation(prices1, prices2 []float64, window int) (*RollingSeries, error) {
	if len(prices1) != len(prices2) {
		return nil, fmt.Errorf("%w: %d vs %d prices", ErrLengthMismatch, len(prices1), len(prices2))
	}
	if window < 2 {
		return nil, fmt.Errorf("%w: window must be >= 2, got %d", ErrInvalidParameter, window)
	}
	if len(prices1) < window {
		return nil, fmt.Errorf("%w: need >= %d points, got %d", ErrInsufficientData, window, len(prices1))
	}

	out := &RollingSeries{
		Values:  make([]float64, len(prices1)),
		Defined: make([]bool, len(prices1)),
	}

	for i := window - 1; i < len(prices1); i++ {
		w1 := prices1[i-window+1 : i+1]
		w2 := prices2[i-window+1 : i+1]
		if stats.Variance(w1) < 1e-10 || stats.Variance(w2) < 1e-10 {
			continue
		}
		out.Values[i] = stats.Correlation(w1, w2)
		out.Defined[i] = true
	}

	return out, nil
}

// VWAP returns the volume-weighted average price.
func VWAP(prices, volumes []float64) (float64, error) {
	if len(prices) != len(volumes) {
		return 0, fmt.Errorf("%w: %d prices vs %d volumes", ErrLengthMismatch, len(prices), len(volumes))
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}

	var totalValue, totalVolume float64
	for i := range prices {
		totalValue += prices[i] * volumes[i]
		totalVolume += volumes[i]
	}
	if totalVolume <= 0 {
		return 0, fmt.Errorf("%w: total volume is zero", ErrDegenerateInput)
	}
	return totalValue / totalVolume, nil
}

// PriceStats summarizes one price series and its bar-to-bar returns.
type PriceStats struct {
	Mean       float64
	Std        float64
	Min        float64
	Max        float64
	Last       float64
	ReturnMean float64
	ReturnStd  float64
	Skewness   float64
	Kurtosis   float64
}

// ComputePriceStats computes descriptive statistics for a price series.
func ComputePriceStats(prices []float64) (*PriceStats, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}

	ps := &PriceStats{
		Mean: stats.Mean(prices),
		Std:  stats.SampleStdDev(prices),
		Min:  prices[0],
		Max:  prices[0],
		Last: prices[len(prices)-1],
	}
	for _, p := range prices {
		ps.Min = math.Min(ps.Min, p)
		ps.Max = math.Max(ps.Max, p)
	}

	if len(prices) > 1 {
		returns := make([]float64, 0, len(prices)-1)
		for i := 1; i < len(prices); i++ {
			if prices[i-1] == 0 {
				return nil, fmt.Errorf("%w: zero price in return computation", ErrDegenerateInput)
			}
			returns = append(returns, prices[i]/prices[i-1]-1)
		}
		ps.ReturnMean = stats.Mean(returns)
		ps.ReturnStd = stats.SampleStdDev(returns)
		ps.Skewness = stats.Skewness(returns)
		ps.Kurtosis = stats.Kurtosis(returns)
	}

	return ps, nil
}

// LiquidityMetrics summarizes recent traded volume.
type LiquidityMetrics struct {
	AvgVolume   float64
	VolumeStd   float64
	LastVolume  float64
	VolumeTrend float64 // change of the rolling average over the last bar
}

// ComputeLiquidityMetrics computes rolling volume statistics over the most
// recent window bars.
func ComputeLiquidityMetrics(volumes []float64, window int) (*LiquidityMetrics, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: window must be >= 2, got %d", ErrInvalidParameter, window)
	}
	if len(volumes) < window+1 {
		return nil, fmt.Errorf("%w: need >= %d points, got %d", ErrInsufficientData, window+1, len(volumes))
	}

	current := stats.CalculateRollingStats(volumes, window)
	previous := stats.CalculateRollingStats(volumes[:len(volumes)-1], window)

	return &LiquidityMetrics{
		AvgVolume:   current.Mean,
		VolumeStd:   current.Std,
		LastVolume:  volumes[len(volumes)-1],
		VolumeTrend: current.Mean - previous.Mean,
	}, nil
}
