package analytics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// makePair builds an aligned pair with prices1 = ratio*prices2 + intercept
// plus optional gaussian noise.
func makePair(n int, ratio, intercept, noise float64, seed int64) *series.PricePair {
	rng := rand.New(rand.NewSource(seed))
	pair := &series.PricePair{Symbol1: "BTCUSDT", Symbol2: "ETHUSDT"}
	for i := 0; i < n; i++ {
		p2 := 100 + 10*math.Sin(float64(i)/3) + 0.1*float64(i)
		p1 := ratio*p2 + intercept + noise*rng.NormFloat64()
		pair.Timestamps = append(pair.Timestamps, int64(i+1))
		pair.Prices1 = append(pair.Prices1, p1)
		pair.Prices2 = append(pair.Prices2, p2)
	}
	return pair
}

func TestFitOLSExact(t *testing.T) {
	pair := makePair(50, 1.5, 10, 0, 1)

	hedge, err := FitOLS(pair)
	if err != nil {
		t.Fatalf("FitOLS() error: %v", err)
	}
	if hedge.Method != MethodOLS {
		t.Errorf("Method = %v, want %v", hedge.Method, MethodOLS)
	}
	if !almostEqual(hedge.Ratio, 1.5, 1e-8) {
		t.Errorf("Ratio = %v, want 1.5", hedge.Ratio)
	}
	if !almostEqual(hedge.Intercept, 10, 1e-6) {
		t.Errorf("Intercept = %v, want 10", hedge.Intercept)
	}
	if !almostEqual(hedge.R2, 1, 1e-8) {
		t.Errorf("R2 = %v, want 1", hedge.R2)
	}
	if hedge.FitWindow != 50 {
		t.Errorf("FitWindow = %v, want 50", hedge.FitWindow)
	}
	if hedge.RatioSeries != nil {
		t.Error("static fit should not carry a ratio series")
	}
}

func TestFitOLSNoisy(t *testing.T) {
	pair := makePair(300, 2.0, 5, 0.5, 7)

	hedge, err := FitOLS(pair)
	if err != nil {
		t.Fatalf("FitOLS() error: %v", err)
	}
	if !almostEqual(hedge.Ratio, 2.0, 0.1) {
		t.Errorf("Ratio = %v, want ~2.0", hedge.Ratio)
	}
	if hedge.R2 < 0.95 {
		t.Errorf("R2 = %v, want > 0.95", hedge.R2)
	}
	if hedge.PValue > 1e-6 {
		t.Errorf("PValue = %v, want ~0 for a strong relationship", hedge.PValue)
	}
	if hedge.StdErr <= 0 {
		t.Errorf("StdErr = %v, want > 0", hedge.StdErr)
	}
}

func TestFitHuberResistsOutliers(t *testing.T) {
	pair := makePair(100, 2.0, 0, 0.2, 11)
	// Contaminate a handful of bars with large one-sided jumps.
	for _, i := range []int{55, 60, 80, 85} {
		pair.Prices1[i] += 60
	}

	ols, err := FitOLS(pair)
	if err != nil {
		t.Fatalf("FitOLS() error: %v", err)
	}
	huber, err := FitHuber(pair)
	if err != nil {
		t.Fatalf("FitHuber() error: %v", err)
	}

	if huber.Method != MethodRobust {
		t.Errorf("Method = %v, want %v", huber.Method, MethodRobust)
	}
	olsErr := math.Abs(ols.Ratio - 2.0)
	huberErr := math.Abs(huber.Ratio - 2.0)
	if huberErr >= olsErr {
		t.Errorf("Huber ratio error %v not better than OLS error %v", huberErr, olsErr)
	}
	if huberErr > 0.1 {
		t.Errorf("Huber Ratio = %v, want within 0.1 of 2.0", huber.Ratio)
	}
}

func TestFitHuberMatchesOLSOnCleanData(t *testing.T) {
	pair := makePair(100, 1.5, 3, 0.1, 13)

	ols, err := FitOLS(pair)
	if err != nil {
		t.Fatalf("FitOLS() error: %v", err)
	}
	huber, err := FitHuber(pair)
	if err != nil {
		t.Fatalf("FitHuber() error: %v", err)
	}
	if !almostEqual(huber.Ratio, ols.Ratio, 0.02) {
		t.Errorf("Huber ratio %v far from OLS ratio %v on clean data", huber.Ratio, ols.Ratio)
	}
}

func TestFitInsufficientData(t *testing.T) {
	pair := makePair(MinFitPoints-1, 1.5, 0, 0, 1)

	for _, method := range []Method{MethodOLS, MethodRobust} {
		if _, err := Fit(pair, method); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Fit(%v) = %v, want ErrInsufficientData", method, err)
		}
	}
	if _, err := AdaptiveHedgeFilter(pair, DefaultKalmanConfig()); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("AdaptiveHedgeFilter() = %v, want ErrInsufficientData", err)
	}
}

func TestFitDegenerateInput(t *testing.T) {
	pair := &series.PricePair{Symbol1: "A", Symbol2: "B"}
	for i := 0; i < 30; i++ {
		pair.Timestamps = append(pair.Timestamps, int64(i+1))
		pair.Prices1 = append(pair.Prices1, float64(100+i))
		pair.Prices2 = append(pair.Prices2, 50) // constant leg 2
	}

	if _, err := FitOLS(pair); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("FitOLS() = %v, want ErrDegenerateInput", err)
	}
	if _, err := FitHuber(pair); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("FitHuber() = %v, want ErrDegenerateInput", err)
	}
}

func TestFitUnknownMethod(t *testing.T) {
	pair := makePair(50, 1.5, 0, 0, 1)
	if _, err := Fit(pair, Method("magic")); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Fit() = %v, want ErrInvalidParameter", err)
	}
}

func TestRatioAt(t *testing.T) {
	static := &HedgeEstimate{Method: MethodOLS, Ratio: 1.5}
	for _, i := range []int{-1, 0, 5, 1000} {
		if got := static.RatioAt(i); got != 1.5 {
			t.Errorf("static RatioAt(%d) = %v, want 1.5", i, got)
		}
	}

	adaptive := &HedgeEstimate{
		Method:      MethodKalman,
		Ratio:       3,
		RatioSeries: []float64{1, 2, 3},
	}
	tests := []struct {
		i    int
		want float64
	}{
		{-1, 1}, // clamped to the first entry
		{0, 1},
		{1, 2},
		{2, 3},
		{10, 3}, // clamped to the last entry
	}
	for _, tt := range tests {
		if got := adaptive.RatioAt(tt.i); got != tt.want {
			t.Errorf("adaptive RatioAt(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestMedianAbsDeviation(t *testing.T) {
	// Median of |r| is 2; scaled by 1/0.6745.
	residuals := []float64{-4, -2, 0, 2, 4}
	want := 2.0 / 0.6745
	if got := medianAbsDeviation(residuals); !almostEqual(got, want, 1e-10) {
		t.Errorf("medianAbsDeviation() = %v, want %v", got, want)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{"Odd", []float64{3, 1, 2}, 2},
		{"Even", []float64{4, 1, 3, 2}, 2.5},
		{"Single", []float64{7}, 7},
		{"Empty", []float64{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.data); !almostEqual(got, tt.expected, 1e-10) {
				t.Errorf("median() = %v, want %v", got, tt.expected)
			}
		})
	}
}
