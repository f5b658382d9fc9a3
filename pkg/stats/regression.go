package stats

import (
	"math"
)

// RegressionResult holds the output of a simple linear regression
// y = Slope*x + Intercept together with its diagnostics.
type RegressionResult struct {
	Slope     float64
	Intercept float64
	R2        float64
	PValue    float64 // two-sided p-value of the slope
	StdErr    float64 // standard error of the slope
	Residuals []float64
}

// Linregress fits y = slope*x + intercept by ordinary least squares and
// reports R², the slope's standard error and its two-sided p-value.
// ok is false when x has no variance or fewer than 3 points are supplied.
func Linregress(x, y []float64) (RegressionResult, bool) {
	n := len(x)
	if n != len(y) || n < 3 {
		return RegressionResult{}, false
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var sxx, sxy, syy float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}

	if sxx < 1e-10 {
		return RegressionResult{}, false
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	residuals := make([]float64, n)
	var ssRes float64
	for i := range x {
		residuals[i] = y[i] - (slope*x[i] + intercept)
		ssRes += residuals[i] * residuals[i]
	}

	r2 := 0.0
	if syy > 1e-10 {
		r2 = 1 - ssRes/syy
	}

	df := float64(n - 2)
	stdErr := math.Sqrt(ssRes / df / sxx)

	pValue := 0.0
	if stdErr > 1e-300 {
		t := slope / stdErr
		pValue = TTestPValue(t, int(df))
	}

	return RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		PValue:    pValue,
		StdErr:    stdErr,
		Residuals: residuals,
	}, true
}

// WeightedLinregress fits y = slope*x + intercept minimizing the weighted
// squared residuals. Weights must be non-negative. ok is false when the
// weighted x variance is degenerate.
func WeightedLinregress(x, y, w []float64) (slope, intercept float64, ok bool) {
	n := len(x)
	if n != len(y) || n != len(w) || n == 0 {
		return 0, 0, false
	}

	var sw, swx, swy float64
	for i := range x {
		sw += w[i]
		swx += w[i] * x[i]
		swy += w[i] * y[i]
	}
	if sw < 1e-10 {
		return 0, 0, false
	}

	meanX := swx / sw
	meanY := swy / sw

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - meanX
		sxx += w[i] * dx * dx
		sxy += w[i] * dx * (y[i] - meanY)
	}

	if sxx < 1e-10 {
		return 0, 0, false
	}

	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept, true
}

// OLSMulti solves the multiple regression y = X*coef by ordinary least
// squares via the normal equations and returns the coefficients with their
// standard errors. X is row-major (one row per observation). ok is false
// when X'X is singular or there are not enough observations.
func OLSMulti(x [][]float64, y []float64) (coef, stdErr []float64, ok bool) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, nil, false
	}
	k := len(x[0])
	if k == 0 || n <= k {
		return nil, nil, false
	}

	// Build X'X and X'y.
	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	for r := 0; r < n; r++ {
		row := x[r]
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[r]
			for j := i; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 1; i < k; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	inv, invOK := invertMatrix(xtx)
	if !invOK {
		return nil, nil, false
	}

	coef = make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coef[i] += inv[i][j] * xty[j]
		}
	}

	// Residual variance and coefficient standard errors.
	var ssRes float64
	for r := 0; r < n; r++ {
		fitted := 0.0
		for i := 0; i < k; i++ {
			fitted += x[r][i] * coef[i]
		}
		diff := y[r] - fitted
		ssRes += diff * diff
	}
	sigma2 := ssRes / float64(n-k)

	stdErr = make([]float64, k)
	for i := 0; i < k; i++ {
		v := sigma2 * inv[i][i]
		if v < 0 {
			v = 0
		}
		stdErr[i] = math.Sqrt(v)
	}

	return coef, stdErr, true
}

// invertMatrix inverts a square matrix by Gauss-Jordan elimination with
// partial pivoting. ok is false for singular matrices.
func invertMatrix(m [][]float64) ([][]float64, bool) {
	n := len(m)
	a := make([][]float64, n)
	inv := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		copy(a[i], m[i])
		inv[i] = make([]float64, n)
		inv[i][i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		scale := a[col][col]
		for j := 0; j < n; j++ {
			a[col][j] /= scale
			inv[col][j] /= scale
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := a[r][col]
			if factor == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				a[r][j] -= factor * a[col][j]
				inv[r][j] -= factor * inv[col][j]
			}
		}
	}

	return inv, true
}
