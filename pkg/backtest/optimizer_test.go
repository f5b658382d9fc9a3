package backtest

import (
	"testing"
)

func TestOptimizerGridSearch(t *testing.T) {
	// A looser entry threshold catches the round trip; the tight one never
	// enters, so ranking by PnL must favor the looser grid point.
	zscore := allDefined([]float64{0, 0, 0, 1.6, 1.4, 0.9, 0.3, -0.1})
	prices1 := []float64{200, 200, 200, 210, 208, 204, 201, 199}
	pair := testPair(prices1, constPrices(8, 100))

	base := testEngineConfig()
	grid := GridSpec{
		EntryThreshold: ParamRange{Min: 1.5, Max: 3.0, Step: 1.5},
		ExitThreshold:  ParamRange{Min: 0.5, Max: 0.5, Step: 0},
		MaxHoldingBars: ParamRange{Min: 0, Max: 0, Step: 0},
	}

	opt := NewOptimizer(base, grid, GoalTotalPnL)
	opt.SetMaxWorkers(2)
	results, err := opt.Run(pair, zscore, unitHedge)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %v, want 2 grid points", len(results))
	}
	best := results[0]
	if best.Rank != 1 {
		t.Errorf("best Rank = %v, want 1", best.Rank)
	}
	if best.Config.EntryThreshold != 1.5 {
		t.Errorf("best EntryThreshold = %v, want 1.5", best.Config.EntryThreshold)
	}
	if best.Result.TotalTrades != 1 {
		t.Errorf("best TotalTrades = %v, want 1", best.Result.TotalTrades)
	}
	if best.Score <= results[1].Score {
		t.Errorf("results not sorted: %v <= %v", best.Score, results[1].Score)
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("results[%d].Rank = %v, want %v", i, r.Rank, i+1)
		}
	}
}

func TestOptimizerSkipsInvalidGridPoints(t *testing.T) {
	zscore := allDefined([]float64{0, 0, 2.1, 1.0, 0.2, 0})
	prices1 := []float64{200, 200, 208, 204, 201, 200}
	pair := testPair(prices1, constPrices(6, 100))

	// Exit 1.5 is invalid against entry 1.0 and must be skipped silently.
	grid := GridSpec{
		EntryThreshold: ParamRange{Min: 1.0, Max: 2.0, Step: 1.0},
		ExitThreshold:  ParamRange{Min: 1.5, Max: 1.5, Step: 0},
		MaxHoldingBars: ParamRange{Min: 0, Max: 0, Step: 0},
	}

	opt := NewOptimizer(testEngineConfig(), grid, GoalSharpeRatio)
	opt.SetMaxWorkers(1)
	results, err := opt.Run(pair, zscore, unitHedge)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %v, want only the valid grid point", len(results))
	}
	if results[0].Config.EntryThreshold != 2.0 {
		t.Errorf("surviving EntryThreshold = %v, want 2.0", results[0].Config.EntryThreshold)
	}
}

func TestParamRangeValues(t *testing.T) {
	tests := []struct {
		name     string
		r        ParamRange
		expected []float64
	}{
		{"Fixed", ParamRange{Min: 2, Max: 2, Step: 0}, []float64{2}},
		{"Steps", ParamRange{Min: 1, Max: 2, Step: 0.5}, []float64{1, 1.5, 2}},
		{"InclusiveUpper", ParamRange{Min: 0, Max: 0.3, Step: 0.1}, []float64{0, 0.1, 0.2, 0.3}},
		{"Inverted", ParamRange{Min: 5, Max: 1, Step: 1}, []float64{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.values()
			if len(got) != len(tt.expected) {
				t.Fatalf("values() = %v, want %v", got, tt.expected)
			}
			for i := range got {
				if !almostEqual(got[i], tt.expected[i], 1e-9) {
					t.Errorf("values()[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}
