package series

import (
	"errors"
	"testing"
)

func newSeries(symbol string, start int64, prices ...float64) *PriceSeries {
	s := &PriceSeries{Symbol: symbol}
	for i, p := range prices {
		s.Append(start+int64(i), p, 0)
	}
	return s
}

func TestPriceSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  *PriceSeries
		wantErr error
	}{
		{
			name:   "Valid",
			series: newSeries("BTCUSDT", 1, 100, 101, 102),
		},
		{
			name:    "DuplicateTimestamp",
			series:  &PriceSeries{Timestamps: []int64{1, 1}, Prices: []float64{100, 101}},
			wantErr: ErrNonMonotonic,
		},
		{
			name:    "DecreasingTimestamp",
			series:  &PriceSeries{Timestamps: []int64{2, 1}, Prices: []float64{100, 101}},
			wantErr: ErrNonMonotonic,
		},
		{
			name:    "NegativePrice",
			series:  &PriceSeries{Timestamps: []int64{1, 2}, Prices: []float64{100, -5}},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "ZeroPrice",
			series:  &PriceSeries{Timestamps: []int64{1}, Prices: []float64{0}},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "LengthMismatch",
			series:  &PriceSeries{Timestamps: []int64{1, 2, 3}, Prices: []float64{100, 101}},
			wantErr: ErrLengthMismatch,
		},
		{
			name: "VolumeLengthMismatch",
			series: &PriceSeries{
				Timestamps: []int64{1, 2},
				Prices:     []float64{100, 101},
				Volumes:    []float64{10},
			},
			wantErr: ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceSeriesTrim(t *testing.T) {
	s := newSeries("ETHUSDT", 1, 1, 2, 3, 4, 5)
	s.Trim(3)
	if s.Len() != 3 {
		t.Fatalf("Len() = %v, want 3", s.Len())
	}
	if s.Prices[0] != 3 || s.Timestamps[0] != 3 {
		t.Errorf("oldest bar = (%d, %v), want (3, 3)", s.Timestamps[0], s.Prices[0])
	}

	// Trimming below the current length is a no-op.
	s.Trim(10)
	if s.Len() != 3 {
		t.Errorf("Len() after no-op trim = %v, want 3", s.Len())
	}
	s.Trim(0)
	if s.Len() != 3 {
		t.Errorf("Len() after Trim(0) = %v, want 3", s.Len())
	}
}

func TestAlignIntersection(t *testing.T) {
	s1 := &PriceSeries{Symbol: "A", Timestamps: []int64{1, 2, 3, 5}, Prices: []float64{10, 11, 12, 14}}
	s2 := &PriceSeries{Symbol: "B", Timestamps: []int64{2, 3, 4, 5}, Prices: []float64{20, 21, 22, 23}}

	pair, err := Align(s1, s2)
	if err != nil {
		t.Fatalf("Align() error: %v", err)
	}
	wantTs := []int64{2, 3, 5}
	if pair.Len() != len(wantTs) {
		t.Fatalf("Len() = %v, want %v", pair.Len(), len(wantTs))
	}
	for i, ts := range wantTs {
		if pair.Timestamps[i] != ts {
			t.Errorf("Timestamps[%d] = %v, want %v", i, pair.Timestamps[i], ts)
		}
	}
	if pair.Prices1[2] != 14 || pair.Prices2[2] != 23 {
		t.Errorf("last aligned bar = (%v, %v), want (14, 23)", pair.Prices1[2], pair.Prices2[2])
	}
	if pair.Volumes1 != nil || pair.Volumes2 != nil {
		t.Error("Align() should not synthesize volumes")
	}
	if err := pair.Validate(); err != nil {
		t.Errorf("aligned pair Validate() = %v", err)
	}
}

func TestAlignWithVolumes(t *testing.T) {
	s1 := &PriceSeries{Symbol: "A"}
	s2 := &PriceSeries{Symbol: "B"}
	for i := int64(1); i <= 3; i++ {
		s1.Append(i, float64(100+i), float64(10*i))
		s2.Append(i, float64(200+i), float64(20*i))
	}

	pair, err := Align(s1, s2)
	if err != nil {
		t.Fatalf("Align() error: %v", err)
	}
	if len(pair.Volumes1) != 3 || len(pair.Volumes2) != 3 {
		t.Fatalf("volumes not carried through: %v / %v", pair.Volumes1, pair.Volumes2)
	}
	if pair.Volumes1[1] != 20 || pair.Volumes2[1] != 40 {
		t.Errorf("Volumes[1] = (%v, %v), want (20, 40)", pair.Volumes1[1], pair.Volumes2[1])
	}
}

func TestAlignNoOverlap(t *testing.T) {
	s1 := &PriceSeries{Symbol: "A", Timestamps: []int64{1, 2}, Prices: []float64{10, 11}}
	s2 := &PriceSeries{Symbol: "B", Timestamps: []int64{3, 4}, Prices: []float64{20, 21}}

	if _, err := Align(s1, s2); !errors.Is(err, ErrNoOverlap) {
		t.Errorf("Align() = %v, want ErrNoOverlap", err)
	}
}

func TestAlignRejectsInvalidInput(t *testing.T) {
	bad := &PriceSeries{Symbol: "A", Timestamps: []int64{2, 1}, Prices: []float64{10, 11}}
	good := newSeries("B", 1, 20, 21)

	if _, err := Align(bad, good); !errors.Is(err, ErrNonMonotonic) {
		t.Errorf("Align() = %v, want ErrNonMonotonic", err)
	}
}
