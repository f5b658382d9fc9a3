package backtest

import (
	"fmt"
	"log"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
	"github.com/yourusername/pairtrade-analytics/pkg/series"
)

// OptimizationGoal selects the metric a grid search ranks by.
type OptimizationGoal string

const (
	GoalSharpeRatio  OptimizationGoal = "sharpe"
	GoalTotalPnL     OptimizationGoal = "pnl"
	GoalWinRate      OptimizationGoal = "win_rate"
	GoalProfitFactor OptimizationGoal = "profit_factor"
)

// ParamRange defines an inclusive grid dimension.
type ParamRange struct {
	Min  float64
	Max  float64
	Step float64
}

func (r ParamRange) values() []float64 {
	if r.Step <= 0 || r.Max < r.Min {
		return []float64{r.Min}
	}
	var out []float64
	for v := r.Min; v <= r.Max+1e-9; v += r.Step {
		out = append(out, v)
	}
	return out
}

// GridSpec is the parameter grid for an optimization run.
type GridSpec struct {
	EntryThreshold ParamRange
	ExitThreshold  ParamRange
	MaxHoldingBars ParamRange // interpreted as integers; Min 0 disables
}

// OptimizationResult is one evaluated grid point.
type OptimizationResult struct {
	Config EngineConfig
	Result *Result
	Score  float64
	Rank   int
}

// Optimizer runs a backtest per grid point on a worker pool. The signal
// pipeline is computed once and shared read-only; each grid point gets its
// own engine, so runs never share mutable state.
type Optimizer struct {
	base       EngineConfig
	grid       GridSpec
	goal       OptimizationGoal
	maxWorkers int
}

// NewOptimizer creates a grid-search optimizer over the base configuration.
func NewOptimizer(base EngineConfig, grid GridSpec, goal OptimizationGoal) *Optimizer {
	return &Optimizer{
		base:       base,
		grid:       grid,
		goal:       goal,
		maxWorkers: runtime.NumCPU(),
	}
}

// SetMaxWorkers bounds the worker pool size.
func (o *Optimizer) SetMaxWorkers(n int) {
	if n > 0 {
		o.maxWorkers = n
	}
}

// Run evaluates every grid point and returns the results ranked best first.
// Grid points whose configuration is invalid (e.g. exit >= entry) are
// skipped.
func (o *Optimizer) Run(pair *series.PricePair, zscore *analytics.RollingSeries, hedge *analytics.HedgeEstimate) ([]*OptimizationResult, error) {
	var configs []EngineConfig
	for _, entry := range o.grid.EntryThreshold.values() {
		for _, exit := range o.grid.ExitThreshold.values() {
			for _, hold := range o.grid.MaxHoldingBars.values() {
				cfg := o.base
				cfg.EntryThreshold = entry
				cfg.ExitThreshold = exit
				cfg.MaxHoldingBars = int(hold)
				configs = append(configs, cfg)
			}
		}
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: empty parameter grid", analytics.ErrInvalidParameter)
	}

	log.Printf("[Optimizer] Evaluating %d grid points with %d workers", len(configs), o.maxWorkers)

	jobs := make(chan EngineConfig, len(configs))
	resultCh := make(chan *OptimizationResult, len(configs))

	var wg sync.WaitGroup
	for w := 0; w < o.maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cfg := range jobs {
				engine, err := NewEngine(cfg)
				if err != nil {
					continue
				}
				result, err := engine.Run(pair, zscore, hedge)
				if err != nil {
					continue
				}
				resultCh <- &OptimizationResult{
					Config: cfg,
					Result: result,
					Score:  o.score(result),
				}
			}
		}()
	}

	for _, cfg := range configs {
		jobs <- cfg
	}
	close(jobs)
	wg.Wait()
	close(resultCh)

	var results []*OptimizationResult
	for r := range resultCh {
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no grid point produced a valid run", analytics.ErrInsufficientData)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i, r := range results {
		r.Rank = i + 1
	}

	log.Printf("[Optimizer] Best %s score: %.4f (entry=%.2f exit=%.2f hold=%d)",
		o.goal, results[0].Score,
		results[0].Config.EntryThreshold, results[0].Config.ExitThreshold, results[0].Config.MaxHoldingBars)
	return results, nil
}

func (o *Optimizer) score(result *Result) float64 {
	switch o.goal {
	case GoalTotalPnL:
		return result.TotalPnL
	case GoalWinRate:
		return result.WinRate
	case GoalProfitFactor:
		return result.ProfitFactor
	default:
		if math.IsNaN(result.SharpeRatio) {
			return 0
		}
		return result.SharpeRatio
	}
}
