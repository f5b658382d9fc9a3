// Package series defines the time-indexed price containers consumed by the
// analytics and backtest layers. A PriceSeries carries bar closes (and
// optionally volumes) for one symbol; a PricePair is two series aligned onto
// a common timestamp index.
package series

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonMonotonic is returned when timestamps are not strictly increasing.
	ErrNonMonotonic = errors.New("timestamps not strictly increasing")

	// ErrInvalidPrice is returned when a price is NaN, Inf or non-positive.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrLengthMismatch is returned when parallel slices disagree in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNoOverlap is returned when two series share no common timestamps.
	ErrNoOverlap = errors.New("no overlapping timestamps")
)

// PriceSeries is an ordered sequence of (timestamp, price) bars for one
// symbol. Timestamps are Unix nanoseconds and must be strictly increasing.
// Volumes is optional and, when present, parallel to Prices.
type PriceSeries struct {
	Symbol     string
	Timestamps []int64
	Prices     []float64
	Volumes    []float64
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	return len(s.Prices)
}

// Append adds one bar to the series.
func (s *PriceSeries) Append(timestamp int64, price, volume float64) {
	s.Timestamps = append(s.Timestamps, timestamp)
	s.Prices = append(s.Prices, price)
	if s.Volumes != nil || volume != 0 {
		if s.Volumes == nil {
			s.Volumes = make([]float64, len(s.Prices)-1)
		}
		s.Volumes = append(s.Volumes, volume)
	}
}

// Trim drops the oldest bars so that at most maxLen remain.
func (s *PriceSeries) Trim(maxLen int) {
	if maxLen <= 0 || s.Len() <= maxLen {
		return
	}
	drop := s.Len() - maxLen
	s.Timestamps = s.Timestamps[drop:]
	s.Prices = s.Prices[drop:]
	if s.Volumes != nil {
		s.Volumes = s.Volumes[drop:]
	}
}

// Validate checks the series invariants: parallel slice lengths, strictly
// increasing timestamps and finite positive prices.
func (s *PriceSeries) Validate() error {
	if len(s.Timestamps) != len(s.Prices) {
		return fmt.Errorf("%w: %d timestamps vs %d prices", ErrLengthMismatch, len(s.Timestamps), len(s.Prices))
	}
	if s.Volumes != nil && len(s.Volumes) != len(s.Prices) {
		return fmt.Errorf("%w: %d volumes vs %d prices", ErrLengthMismatch, len(s.Volumes), len(s.Prices))
	}

	for i, p := range s.Prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("%w: %v at index %d", ErrInvalidPrice, p, i)
		}
		if i > 0 && s.Timestamps[i] <= s.Timestamps[i-1] {
			return fmt.Errorf("%w: index %d (%d <= %d)", ErrNonMonotonic, i, s.Timestamps[i], s.Timestamps[i-1])
		}
	}
	return nil
}

// PricePair is two price series aligned onto a common timestamp index.
// All slices are parallel; Volumes1/Volumes2 are nil when either input
// series carried no volume data.
type PricePair struct {
	Symbol1    string
	Symbol2    string
	Timestamps []int64
	Prices1    []float64
	Prices2    []float64
	Volumes1   []float64
	Volumes2   []float64
}

// Len returns the number of aligned bars.
func (p *PricePair) Len() int {
	return len(p.Timestamps)
}

// Align intersects two validated price series on their timestamps and
// returns the aligned pair. Bars present in only one series are dropped,
// mirroring how the resampling layer joins symbol indices.
func Align(s1, s2 *PriceSeries) (*PricePair, error) {
	if err := s1.Validate(); err != nil {
		return nil, fmt.Errorf("series %s: %w", s1.Symbol, err)
	}
	if err := s2.Validate(); err != nil {
		return nil, fmt.Errorf("series %s: %w", s2.Symbol, err)
	}

	pair := &PricePair{
		Symbol1: s1.Symbol,
		Symbol2: s2.Symbol,
	}
	withVolumes := s1.Volumes != nil && s2.Volumes != nil

	i, j := 0, 0
	for i < s1.Len() && j < s2.Len() {
		t1, t2 := s1.Timestamps[i], s2.Timestamps[j]
		switch {
		case t1 == t2:
			pair.Timestamps = append(pair.Timestamps, t1)
			pair.Prices1 = append(pair.Prices1, s1.Prices[i])
			pair.Prices2 = append(pair.Prices2, s2.Prices[j])
			if withVolumes {
				pair.Volumes1 = append(pair.Volumes1, s1.Volumes[i])
				pair.Volumes2 = append(pair.Volumes2, s2.Volumes[j])
			}
			i++
			j++
		case t1 < t2:
			i++
		default:
			j++
		}
	}

	if pair.Len() == 0 {
		return nil, fmt.Errorf("%w: %s vs %s", ErrNoOverlap, s1.Symbol, s2.Symbol)
	}
	return pair, nil
}

// Validate checks the aligned pair invariants.
func (p *PricePair) Validate() error {
	n := len(p.Timestamps)
	if len(p.Prices1) != n || len(p.Prices2) != n {
		return fmt.Errorf("%w: %d timestamps vs %d/%d prices", ErrLengthMismatch, n, len(p.Prices1), len(p.Prices2))
	}

	for i := 0; i < n; i++ {
		if i > 0 && p.Timestamps[i] <= p.Timestamps[i-1] {
			return fmt.Errorf("%w: index %d", ErrNonMonotonic, i)
		}
		for _, v := range [2]float64{p.Prices1[i], p.Prices2[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: %v at index %d", ErrInvalidPrice, v, i)
			}
		}
	}
	return nil
}
