package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"Single", []float64{7}, 7.0},
		{"Empty", []float64{}, 0.0},
		{"Negative", []float64{-2, 2}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.data); !almostEqual(got, tt.expected, 1e-10) {
				t.Errorf("Mean() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVarianceAndStdDev(t *testing.T) {
	data := []float64{100, 110, 120}

	// Population variance: ((100-110)^2 + 0 + (120-110)^2) / 3 = 66.67
	if got := Variance(data); !almostEqual(got, 66.6667, 0.001) {
		t.Errorf("Variance() = %v, want 66.6667", got)
	}
	if got := StdDev(data); !almostEqual(got, 8.165, 0.001) {
		t.Errorf("StdDev() = %v, want 8.165", got)
	}

	// Sample variance divides by n-1: 200/2 = 100.
	if got := SampleVariance(data); !almostEqual(got, 100.0, 1e-10) {
		t.Errorf("SampleVariance() = %v, want 100", got)
	}
	if got := SampleStdDev(data); !almostEqual(got, 10.0, 1e-10) {
		t.Errorf("SampleStdDev() = %v, want 10", got)
	}
}

func TestCalculateRollingStats(t *testing.T) {
	data := []float64{1, 2, 3, 10, 20, 30}

	// Only the last 3 points should be used.
	stats := CalculateRollingStats(data, 3)
	if stats.Count != 3 {
		t.Errorf("Count = %v, want 3", stats.Count)
	}
	if !almostEqual(stats.Mean, 20.0, 1e-10) {
		t.Errorf("Mean = %v, want 20", stats.Mean)
	}
	expectedStd := math.Sqrt((100.0 + 0 + 100.0) / 3)
	if !almostEqual(stats.Std, expectedStd, 1e-10) {
		t.Errorf("Std = %v, want %v", stats.Std, expectedStd)
	}

	// Period larger than the data falls back to the full slice.
	full := CalculateRollingStats(data, 100)
	if full.Count != len(data) {
		t.Errorf("Count = %v, want %v", full.Count, len(data))
	}
}

func TestZScore(t *testing.T) {
	if got := ZScore(12, 10, 2); !almostEqual(got, 1.0, 1e-10) {
		t.Errorf("ZScore() = %v, want 1", got)
	}

	// Zero std must not blow up.
	if got := ZScore(12, 10, 0); got != 0 {
		t.Errorf("ZScore() with zero std = %v, want 0", got)
	}
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	// Perfect positive correlation.
	y := []float64{2, 4, 6, 8, 10}
	if got := Correlation(x, y); !almostEqual(got, 1.0, 1e-10) {
		t.Errorf("Correlation() = %v, want 1", got)
	}

	// Perfect negative correlation.
	yNeg := []float64{10, 8, 6, 4, 2}
	if got := Correlation(x, yNeg); !almostEqual(got, -1.0, 1e-10) {
		t.Errorf("Correlation() = %v, want -1", got)
	}

	// Constant series has no defined correlation; we return 0.
	flat := []float64{5, 5, 5, 5, 5}
	if got := Correlation(x, flat); got != 0 {
		t.Errorf("Correlation() with flat series = %v, want 0", got)
	}

	// Mismatched lengths.
	if got := Correlation(x, []float64{1, 2}); got != 0 {
		t.Errorf("Correlation() with mismatched lengths = %v, want 0", got)
	}
}

func TestCovariance(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{2, 4, 6}

	// cov = mean((x-2)*(y-4)) = (2 + 0 + 2)/3
	if got := Covariance(x, y); !almostEqual(got, 4.0/3, 1e-10) {
		t.Errorf("Covariance() = %v, want %v", got, 4.0/3)
	}
}

func TestSkewnessAndKurtosis(t *testing.T) {
	// A symmetric series has ~zero skew.
	symmetric := []float64{-2, -1, 0, 1, 2}
	if got := Skewness(symmetric); !almostEqual(got, 0, 1e-10) {
		t.Errorf("Skewness() = %v, want 0", got)
	}

	// A right-tailed series has positive skew.
	rightTail := []float64{1, 1, 1, 1, 10}
	if got := Skewness(rightTail); got <= 0 {
		t.Errorf("Skewness() = %v, want > 0", got)
	}

	// Too-short series return 0.
	if got := Skewness([]float64{1, 2}); got != 0 {
		t.Errorf("Skewness() short = %v, want 0", got)
	}
	if got := Kurtosis([]float64{1, 2, 3}); got != 0 {
		t.Errorf("Kurtosis() short = %v, want 0", got)
	}

	// A heavy-tailed series has positive excess kurtosis.
	heavyTail := []float64{0, 0, 0, 0, 0, 0, 0, 0, -20, 20}
	if got := Kurtosis(heavyTail); got <= 0 {
		t.Errorf("Kurtosis() = %v, want > 0", got)
	}
}
