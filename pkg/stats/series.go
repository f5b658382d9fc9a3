// Package stats provides the statistical primitives shared by the analytics
// and backtest layers: descriptive statistics, rolling window statistics,
// Pearson correlation and simple linear regression over float64 slices.
package stats

import (
	"math"
)

// RollingWindowStats holds the statistics of one rolling window.
type RollingWindowStats struct {
	Mean     float64
	Std      float64
	Variance float64
	Count    int
}

// CalculateRollingStats computes mean, variance and standard deviation over
// the most recent period points in a single pass.
func CalculateRollingStats(data []float64, period int) RollingWindowStats {
	if len(data) == 0 {
		return RollingWindowStats{}
	}

	n := len(data)
	if period <= 0 || period > n {
		period = n
	}

	recent := data[n-period:]

	var sum float64
	for _, val := range recent {
		sum += val
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, val := range recent {
		diff := val - mean
		variance += diff * diff
	}
	variance /= float64(len(recent))

	return RollingWindowStats{
		Mean:     mean,
		Std:      math.Sqrt(variance),
		Variance: variance,
		Count:    len(recent),
	}
}

// Mean returns the arithmetic mean of data, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	var sum float64
	for _, val := range data {
		sum += val
	}
	return sum / float64(len(data))
}

// Variance returns the population variance of data.
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	mean := Mean(data)
	var variance float64
	for _, val := range data {
		diff := val - mean
		variance += diff * diff
	}
	return variance / float64(len(data))
}

// StdDev returns the population standard deviation of data.
func StdDev(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// SampleVariance returns the unbiased (n-1) variance of data.
func SampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}

	mean := Mean(data)
	var variance float64
	for _, val := range data {
		diff := val - mean
		variance += diff * diff
	}
	return variance / float64(len(data)-1)
}

// SampleStdDev returns the unbiased (n-1) standard deviation of data.
func SampleStdDev(data []float64) float64 {
	return math.Sqrt(SampleVariance(data))
}

// ZScore normalizes value against a mean and standard deviation.
// Returns 0 when std is effectively zero.
func ZScore(value, mean, std float64) float64 {
	if std < 1e-10 {
		return 0
	}
	return (value - mean) / std
}

// Correlation computes the Pearson correlation coefficient between x and y.
// Returns 0 for mismatched lengths or degenerate (zero variance) inputs.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var numerator, varX, varY float64
	for i := range x {
		diffX := x[i] - meanX
		diffY := y[i] - meanY
		numerator += diffX * diffY
		varX += diffX * diffX
		varY += diffY * diffY
	}

	denominator := math.Sqrt(varX * varY)
	if denominator < 1e-10 {
		return 0
	}

	return numerator / denominator
}

// Covariance computes the population covariance between x and y.
func Covariance(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var covariance float64
	for i := range x {
		covariance += (x[i] - meanX) * (y[i] - meanY)
	}

	return covariance / float64(len(x))
}

// Skewness returns the sample skewness of data, or 0 when fewer than
// 3 points are available or the series has no dispersion.
func Skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}

	mean := Mean(data)
	std := SampleStdDev(data)
	if std < 1e-10 {
		return 0
	}

	var m3 float64
	for _, val := range data {
		d := (val - mean) / std
		m3 += d * d * d
	}
	return n / ((n - 1) * (n - 2)) * m3
}

// Kurtosis returns the sample excess kurtosis of data, or 0 when fewer
// than 4 points are available or the series has no dispersion.
func Kurtosis(data []float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}

	mean := Mean(data)
	std := SampleStdDev(data)
	if std < 1e-10 {
		return 0
	}

	var m4 float64
	for _, val := range data {
		d := (val - mean) / std
		m4 += d * d * d * d
	}

	a := n * (n + 1) / ((n - 1) * (n - 2) * (n - 3))
	b := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return a*m4 - b
}
