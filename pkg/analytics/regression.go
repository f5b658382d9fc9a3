// Package analytics implements the quantitative core for pairs trading:
// hedge ratio estimation (OLS, Huber, Kalman), spread construction, rolling
// z-scores and correlations, stationarity testing and signal snapshots.
package analytics

import (
	"fmt"
	"math"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
	"github.com/yourusername/pairtrade-analytics/pkg/stats"
)

// Method selects the hedge ratio estimation method.
type Method string

const (
	// MethodOLS fits a static ratio by ordinary least squares.
	MethodOLS Method = "ols"
	// MethodRobust fits a static ratio by Huber iteratively reweighted
	// least squares, downweighting outliers.
	MethodRobust Method = "robust"
	// MethodKalman estimates a time-varying ratio with a random walk
	// Kalman filter.
	MethodKalman Method = "kalman"
)

// MinFitPoints is the minimum number of aligned observations required for
// any hedge ratio fit.
const MinFitPoints = 20

// HedgeEstimate is the result of a hedge ratio fit.
// For MethodKalman the ratio is a per-timestamp sequence in RatioSeries and
// Ratio holds the final filtered value; the first BurnIn entries are
// low-confidence. For the static methods RatioSeries is nil.
type HedgeEstimate struct {
	Method    Method
	Ratio     float64
	Intercept float64
	FitWindow int

	RatioSeries []float64
	BurnIn      int

	// OLS/Robust diagnostics
	R2     float64
	PValue float64
	StdErr float64
}

// RatioAt returns the hedge ratio effective at bar index i.
func (h *HedgeEstimate) RatioAt(i int) float64 {
	if h.RatioSeries == nil {
		return h.Ratio
	}
	if i < 0 {
		i = 0
	}
	if i >= len(h.RatioSeries) {
		i = len(h.RatioSeries) - 1
	}
	return h.RatioSeries[i]
}

// Fit estimates the hedge ratio of pair.Prices1 on pair.Prices2 with the
// selected static method. Use AdaptiveHedgeFilter for MethodKalman.
func Fit(pair *series.PricePair, method Method) (*HedgeEstimate, error) {
	switch method {
	case MethodOLS:
		return FitOLS(pair)
	case MethodRobust:
		return FitHuber(pair)
	default:
		return nil, fmt.Errorf("%w: method %q", ErrInvalidParameter, method)
	}
}

// FitOLS computes the least squares hedge ratio of prices1 on prices2 with
// slope diagnostics (R², p-value, standard error).
func FitOLS(pair *series.PricePair) (*HedgeEstimate, error) {
	if err := checkFitInput(pair); err != nil {
		return nil, err
	}

	result, ok := stats.Linregress(pair.Prices2, pair.Prices1)
	if !ok {
		return nil, fmt.Errorf("%w: zero variance in %s", ErrDegenerateInput, pair.Symbol2)
	}
	if !isFinite(result.Slope) || !isFinite(result.Intercept) {
		return nil, fmt.Errorf("%w: OLS produced non-finite coefficients", ErrNumericInstability)
	}

	return &HedgeEstimate{
		Method:    MethodOLS,
		Ratio:     result.Slope,
		Intercept: result.Intercept,
		FitWindow: pair.Len(),
		R2:        result.R2,
		PValue:    result.PValue,
		StdErr:    result.StdErr,
	}, nil
}

// Huber IRLS parameters. The 1.345 threshold gives 95% efficiency under
// normal errors.
const (
	huberK       = 1.345
	huberMaxIter = 50
	huberTol     = 1e-8
)

// FitHuber computes an outlier-robust hedge ratio by iteratively reweighted
// least squares under the Huber loss. Falls back on the OLS solution as the
// starting point.
func FitHuber(pair *series.PricePair) (*HedgeEstimate, error) {
	if err := checkFitInput(pair); err != nil {
		return nil, err
	}

	x := pair.Prices2
	y := pair.Prices1

	start, ok := stats.Linregress(x, y)
	if !ok {
		return nil, fmt.Errorf("%w: zero variance in %s", ErrDegenerateInput, pair.Symbol2)
	}

	slope, intercept := start.Slope, start.Intercept
	n := len(x)
	residuals := make([]float64, n)
	weights := make([]float64, n)

	for iter := 0; iter < huberMaxIter; iter++ {
		for i := range x {
			residuals[i] = y[i] - (slope*x[i] + intercept)
		}

		scale := medianAbsDeviation(residuals)
		if scale < 1e-10 {
			// Residuals already (near) exact, nothing left to reweight.
			break
		}

		threshold := huberK * scale
		for i, r := range residuals {
			if a := math.Abs(r); a > threshold {
				weights[i] = threshold / a
			} else {
				weights[i] = 1
			}
		}

		newSlope, newIntercept, wok := stats.WeightedLinregress(x, y, weights)
		if !wok {
			return nil, fmt.Errorf("%w: weighted fit collapsed", ErrDegenerateInput)
		}
		if !isFinite(newSlope) || !isFinite(newIntercept) {
			return nil, fmt.Errorf("%w: Huber iteration produced non-finite coefficients", ErrNumericInstability)
		}

		if math.Abs(newSlope-slope) < huberTol && math.Abs(newIntercept-intercept) < huberTol {
			slope, intercept = newSlope, newIntercept
			break
		}
		slope, intercept = newSlope, newIntercept
	}

	var ssRes, ssTot float64
	meanY := stats.Mean(y)
	for i := range x {
		r := y[i] - (slope*x[i] + intercept)
		ssRes += r * r
		d := y[i] - meanY
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 1e-10 {
		r2 = 1 - ssRes/ssTot
	}

	return &HedgeEstimate{
		Method:    MethodRobust,
		Ratio:     slope,
		Intercept: intercept,
		FitWindow: pair.Len(),
		R2:        r2,
	}, nil
}

func checkFitInput(pair *series.PricePair) error {
	if len(pair.Prices1) != len(pair.Prices2) {
		return fmt.Errorf("%w: %d vs %d prices", ErrLengthMismatch, len(pair.Prices1), len(pair.Prices2))
	}
	if pair.Len() < MinFitPoints {
		return fmt.Errorf("%w: need >= %d aligned points, got %d", ErrInsufficientData, MinFitPoints, pair.Len())
	}
	return nil
}

func medianAbsDeviation(residuals []float64) float64 {
	abs := make([]float64, len(residuals))
	for i, r := range residuals {
		abs[i] = math.Abs(r)
	}
	// MAD scaled to be consistent with the normal standard deviation.
	return median(abs) / 0.6745
}

func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	// Insertion sort: windows here are small and this keeps stats free of
	// sort.Float64s allocations on the hot path.
	for i := 1; i < n; i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
