package analytics

import (
	"fmt"
	"math"

	"github.com/yourusername/pairtrade-analytics/pkg/stats"
)

// StationarityVerdict is the result of an augmented Dickey-Fuller unit-root
// test. IsStationary requires both p < 0.05 and the statistic below the 5%
// critical value, which avoids false positives on boundary cases.
type StationarityVerdict struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64 // "1%", "5%", "10%"
	IsStationary   bool
}

// MacKinnon (2010) response-surface coefficients for the constant-only
// Dickey-Fuller distribution: cv = b0 + b1/T + b2/T^2 + b3/T^3.
var adfCriticalSurface = map[string][4]float64{
	"1%":  {-3.43035, -6.5393, -16.786, -79.433},
	"5%":  {-2.86154, -2.8903, -4.234, -40.040},
	"10%": {-2.56677, -1.5384, -2.809, 0},
}

// MacKinnon (1994) approximate asymptotic p-value polynomials for the
// constant-only case: p = NormalCDF(poly(tau)).
var (
	adfTauMax    = 2.74
	adfTauMin    = -18.83
	adfTauStar   = -1.61
	adfSmallPoly = [3]float64{2.1659, 1.4412, 0.038269}
	adfLargePoly = [4]float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// ADFTest runs an augmented Dickey-Fuller test with a constant term on a
// spread series. lag < 0 selects the Schwert rule default
// floor(12*(T/100)^0.25); lag >= 0 uses that fixed lag order.
func ADFTest(spread []float64, lag int) (*StationarityVerdict, error) {
	n := len(spread)
	if n < MinFitPoints {
		return nil, fmt.Errorf("%w: need >= %d points, got %d", ErrInsufficientData, MinFitPoints, n)
	}

	if lag < 0 {
		lag = int(12 * math.Pow(float64(n)/100, 0.25))
	}
	// Keep enough residual degrees of freedom for the t statistic.
	if maxLag := n - 12; lag > maxLag {
		if maxLag < 0 {
			lag = 0
		} else {
			lag = maxLag
		}
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = spread[i] - spread[i-1]
	}

	// Regression rows: dy_t = c + gamma*y_{t-1} + sum phi_i*dy_{t-i}.
	nobs := len(diff) - lag
	if nobs < lag+3 {
		return nil, fmt.Errorf("%w: %d observations left after %d lags", ErrInsufficientData, nobs, lag)
	}

	cols := 2 + lag
	x := make([][]float64, nobs)
	y := make([]float64, nobs)
	for r := 0; r < nobs; r++ {
		t := r + lag // index into diff
		row := make([]float64, cols)
		row[0] = 1
		row[1] = spread[t] // y_{t-1} relative to diff[t]
		for i := 1; i <= lag; i++ {
			row[1+i] = diff[t-i]
		}
		x[r] = row
		y[r] = diff[t]
	}

	coef, stdErr, ok := stats.OLSMulti(x, y)
	if !ok {
		return nil, fmt.Errorf("%w: ADF design matrix is singular", ErrDegenerateInput)
	}
	if stdErr[1] < 1e-300 {
		return nil, fmt.Errorf("%w: zero standard error on lagged level", ErrDegenerateInput)
	}

	statistic := coef[1] / stdErr[1]
	if !isFinite(statistic) {
		return nil, fmt.Errorf("%w: non-finite ADF statistic", ErrNumericInstability)
	}

	critical := make(map[string]float64, len(adfCriticalSurface))
	tf := float64(nobs)
	for level, b := range adfCriticalSurface {
		critical[level] = b[0] + b[1]/tf + b[2]/(tf*tf) + b[3]/(tf*tf*tf)
	}

	pValue := adfPValue(statistic)

	return &StationarityVerdict{
		Statistic:      statistic,
		PValue:         pValue,
		Lags:           lag,
		NObs:           nobs,
		CriticalValues: critical,
		IsStationary:   pValue < 0.05 && statistic < critical["5%"],
	}, nil
}

func adfPValue(tau float64) float64 {
	if tau > adfTauMax {
		return 1
	}
	if tau < adfTauMin {
		return 0
	}
	if tau <= adfTauStar {
		c := adfSmallPoly
		return stats.NormalCDF(c[0] + c[1]*tau + c[2]*tau*tau)
	}
	c := adfLargePoly
	return stats.NormalCDF(c[0] + c[1]*tau + c[2]*tau*tau + c[3]*tau*tau*tau)
}

// HalfLife is the expected number of bars for a mean-reverting series to
// close half the distance back to its mean. Infinite marks a series with no
// measured reversion; LowConfidence flags estimates longer than the input
// window, which carry no real precision.
type HalfLife struct {
	Bars          float64
	Infinite      bool
	LowConfidence bool
}

// ComputeHalfLife fits ds_t = c + lambda*s_{t-1} and converts the reversion
// speed to a half-life of ln(2)/(-lambda).
func ComputeHalfLife(spread []float64) (*HalfLife, error) {
	n := len(spread)
	if n < MinFitPoints {
		return nil, fmt.Errorf("%w: need >= %d points, got %d", ErrInsufficientData, MinFitPoints, n)
	}

	lagged := spread[:n-1]
	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = spread[i] - spread[i-1]
	}

	fit, ok := stats.Linregress(lagged, diff)
	if !ok {
		return nil, fmt.Errorf("%w: spread has no variance", ErrDegenerateInput)
	}

	lambda := -fit.Slope
	if lambda <= 0 {
		return &HalfLife{Infinite: true}, nil
	}

	bars := math.Ln2 / lambda
	if !isFinite(bars) {
		return nil, fmt.Errorf("%w: non-finite half-life", ErrNumericInstability)
	}

	return &HalfLife{
		Bars:          bars,
		LowConfidence: bars > float64(n),
	}, nil
}
