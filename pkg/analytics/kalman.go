package analytics

import (
	"fmt"
	"math"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
	"github.com/yourusername/pairtrade-analytics/pkg/stats"
)

// KalmanConfig tunes the adaptive hedge filter. ProcessVar controls how fast
// the ratio is allowed to drift; ObsVar is the trust placed in each new bar.
// Both materially change responsiveness vs. stability, so they are exposed
// rather than hardcoded.
type KalmanConfig struct {
	ProcessVar float64
	ObsVar     float64

	// InitWindow is the number of leading bars used for the OLS seed and
	// flagged as burn-in. Defaults to MinFitPoints when zero.
	InitWindow int

	// PriorVar is the initial state covariance. A large prior lets the
	// filter converge quickly from the seed. Defaults to 100 when zero.
	PriorVar float64
}

// DefaultKalmanConfig returns the filter defaults used by the signal layer.
func DefaultKalmanConfig() KalmanConfig {
	return KalmanConfig{
		ProcessVar: 1e-5,
		ObsVar:     1e-3,
		InitWindow: MinFitPoints,
		PriorVar:   100,
	}
}

// AdaptiveHedgeFilter estimates a time-varying hedge ratio with a scalar
// state-space model: the hidden ratio follows a random walk
// b_t = b_{t-1} + w_t and each bar observes price1_t = b_t*price2_t + v_t.
//
// The returned estimate carries one ratio per aligned timestamp; the first
// BurnIn values are low-confidence while the filter converges from its seed.
func AdaptiveHedgeFilter(pair *series.PricePair, cfg KalmanConfig) (*HedgeEstimate, error) {
	if err := checkFitInput(pair); err != nil {
		return nil, err
	}
	if cfg.ProcessVar <= 0 || cfg.ObsVar <= 0 {
		return nil, fmt.Errorf("%w: process/observation variance must be > 0", ErrInvalidParameter)
	}
	if cfg.InitWindow <= 0 {
		cfg.InitWindow = MinFitPoints
	}
	if cfg.PriorVar <= 0 {
		cfg.PriorVar = 100
	}

	n := pair.Len()

	// Seed with an OLS fit over the first window, or 1.0 if the window is
	// degenerate.
	beta := 1.0
	seedWindow := cfg.InitWindow
	if seedWindow > n {
		seedWindow = n
	}
	if seed, ok := stats.Linregress(pair.Prices2[:seedWindow], pair.Prices1[:seedWindow]); ok {
		beta = seed.Slope
	}

	p := cfg.PriorVar
	ratios := make([]float64, n)

	for t := 0; t < n; t++ {
		// Predict: random walk keeps the prior mean, inflates covariance.
		pPred := p + cfg.ProcessVar

		x := pair.Prices2[t]
		if math.Abs(x) < 1e-8 {
			// A near-zero observation price makes the gain blow up.
			// Hold the prior state and only carry the inflated covariance.
			p = pPred
			ratios[t] = beta
			continue
		}

		innovation := pair.Prices1[t] - beta*x
		gain := pPred * x / (x*x*pPred + cfg.ObsVar)

		beta += gain * innovation
		p = (1 - gain*x) * pPred

		if !isFinite(beta) || !isFinite(p) {
			return nil, fmt.Errorf("%w: filter diverged at bar %d", ErrNumericInstability, t)
		}
		ratios[t] = beta
	}

	burnIn := cfg.InitWindow
	if burnIn > n {
		burnIn = n
	}

	return &HedgeEstimate{
		Method:      MethodKalman,
		Ratio:       ratios[n-1],
		FitWindow:   n,
		RatioSeries: ratios,
		BurnIn:      burnIn,
	}, nil
}
