package backtest

import (
	"math"

	"github.com/yourusername/pairtrade-analytics/pkg/stats"
)

// computeMetrics fills the performance fields of a result from its trade
// ledger and equity curve.
func computeMetrics(result *Result, barsPerYear float64) {
	result.TotalTrades = len(result.Trades)

	var totalWin, totalLoss float64
	for _, trade := range result.Trades {
		result.TotalPnL += trade.PnL
		switch {
		case trade.PnL > 0:
			result.WinTrades++
			totalWin += trade.PnL
			result.MaxWin = math.Max(result.MaxWin, trade.PnL)
		case trade.PnL < 0:
			result.LossTrades++
			totalLoss += -trade.PnL
			result.MaxLoss = math.Min(result.MaxLoss, trade.PnL)
		}
	}

	if result.TotalTrades > 0 {
		result.WinRate = float64(result.WinTrades) / float64(result.TotalTrades)
		result.AvgPnL = result.TotalPnL / float64(result.TotalTrades)
	}
	if totalLoss > 0 {
		result.ProfitFactor = totalWin / totalLoss
	}

	if len(result.EquityCurve) > 1 {
		returns := make([]float64, len(result.EquityCurve)-1)
		for i := 1; i < len(result.EquityCurve); i++ {
			returns[i-1] = result.EquityCurve[i].Equity - result.EquityCurve[i-1].Equity
		}

		annualize := math.Sqrt(barsPerYear)
		if std := stats.SampleStdDev(returns); std > 1e-10 {
			result.SharpeRatio = stats.Mean(returns) / std * annualize
		}

		downside := make([]float64, 0, len(returns))
		for _, r := range returns {
			if r < 0 {
				downside = append(downside, r)
			}
		}
		if len(downside) > 1 {
			if std := stats.SampleStdDev(downside); std > 1e-10 {
				result.SortinoRatio = stats.Mean(returns) / std * annualize
			}
		}
	}

	result.MaxDrawdown = maxDrawdown(result.EquityCurve)
}

// maxDrawdown returns the largest peak-to-trough decline of the equity
// curve, in PnL units.
func maxDrawdown(curve []EquityPoint) float64 {
	var peak, worst float64
	for i, point := range curve {
		if i == 0 || point.Equity > peak {
			peak = point.Equity
		}
		if dd := peak - point.Equity; dd > worst {
			worst = dd
		}
	}
	return worst
}
