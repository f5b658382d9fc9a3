package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ReportGenerator writes backtest results to disk in the configured formats.
type ReportGenerator struct {
	config *Config
	result *Result
}

// NewReportGenerator creates a report generator for one result.
func NewReportGenerator(config *Config, result *Result) *ReportGenerator {
	return &ReportGenerator{config: config, result: result}
}

// Generate writes the report (and optionally the trade ledger CSV) to the
// configured result directory.
func (g *ReportGenerator) Generate() error {
	outputDir := g.config.Output.ResultDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")

	switch g.config.Output.ReportFormat {
	case "json":
		if err := g.writeJSON(filepath.Join(outputDir, fmt.Sprintf("backtest_%s.json", timestamp))); err != nil {
			return err
		}
	default:
		if err := g.writeMarkdown(filepath.Join(outputDir, fmt.Sprintf("backtest_report_%s.md", timestamp))); err != nil {
			return err
		}
	}

	if g.config.Output.SaveTrades {
		if err := g.writeTradesCSV(filepath.Join(outputDir, fmt.Sprintf("trades_%s.csv", timestamp))); err != nil {
			return err
		}
	}

	return nil
}

func (g *ReportGenerator) writeMarkdown(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r := g.result
	fmt.Fprintf(file, "# Backtest Report\n\n")
	fmt.Fprintf(file, "**Pair**: %s / %s\n", g.config.Pair.Symbol1, g.config.Pair.Symbol2)
	fmt.Fprintf(file, "**Method**: %s\n", g.config.Signal.Method)
	fmt.Fprintf(file, "**Entry/Exit Z**: %.2f / %.2f\n\n", g.config.Strategy.EntryThreshold, g.config.Strategy.ExitThreshold)
	fmt.Fprintf(file, "---\n\n")

	fmt.Fprintf(file, "## Performance Summary\n\n")
	fmt.Fprintf(file, "| Metric | Value |\n")
	fmt.Fprintf(file, "|--------|-------|\n")
	fmt.Fprintf(file, "| **Total PnL** | %.4f |\n", r.TotalPnL)
	fmt.Fprintf(file, "| **Sharpe Ratio** | %.2f |\n", r.SharpeRatio)
	fmt.Fprintf(file, "| **Sortino Ratio** | %.2f |\n", r.SortinoRatio)
	fmt.Fprintf(file, "| **Max Drawdown** | %.4f |\n", r.MaxDrawdown)
	fmt.Fprintf(file, "| **Win Rate** | %.2f%% |\n", r.WinRate*100)
	fmt.Fprintf(file, "| **Profit Factor** | %.2f |\n\n", r.ProfitFactor)

	fmt.Fprintf(file, "## Trade Statistics\n\n")
	fmt.Fprintf(file, "| Metric | Value |\n")
	fmt.Fprintf(file, "|--------|-------|\n")
	fmt.Fprintf(file, "| **Total Trades** | %d |\n", r.TotalTrades)
	fmt.Fprintf(file, "| **Win Trades** | %d |\n", r.WinTrades)
	fmt.Fprintf(file, "| **Loss Trades** | %d |\n", r.LossTrades)
	fmt.Fprintf(file, "| **Avg PnL** | %.4f |\n", r.AvgPnL)
	fmt.Fprintf(file, "| **Max Win** | %.4f |\n", r.MaxWin)
	fmt.Fprintf(file, "| **Max Loss** | %.4f |\n\n", r.MaxLoss)

	if len(r.Trades) > 0 {
		fmt.Fprintf(file, "## Trades\n\n")
		fmt.Fprintf(file, "| # | Direction | Entry | Exit | Bars | Reason | PnL |\n")
		fmt.Fprintf(file, "|---|-----------|-------|------|------|--------|-----|\n")
		for i, t := range r.Trades {
			fmt.Fprintf(file, "| %d | %s | %s | %s | %d | %s | %.4f |\n",
				i+1, t.Direction,
				time.Unix(0, t.EntryTime).UTC().Format("2006-01-02 15:04:05"),
				time.Unix(0, t.ExitTime).UTC().Format("2006-01-02 15:04:05"),
				t.HoldingBars, t.ExitReason, t.PnL)
		}
	}

	fmt.Printf("[Report] Markdown report saved: %s\n", filename)
	return nil
}

func (g *ReportGenerator) writeJSON(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g.result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Printf("[Report] JSON report saved: %s\n", filename)
	return nil
}

// writeTradesCSV exports the trade ledger as flat tabular records, one row
// per sealed trade.
func (g *ReportGenerator) writeTradesCSV(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"entry_time", "exit_time", "direction", "entry_price1", "entry_price2",
		"entry_ratio", "exit_price1", "exit_price2", "exit_reason",
		"holding_bars", "pnl", "return_pct",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range g.result.Trades {
		row := []string{
			time.Unix(0, t.EntryTime).UTC().Format(time.RFC3339),
			time.Unix(0, t.ExitTime).UTC().Format(time.RFC3339),
			t.Direction.String(),
			strconv.FormatFloat(t.EntryPrice1, 'f', -1, 64),
			strconv.FormatFloat(t.EntryPrice2, 'f', -1, 64),
			strconv.FormatFloat(t.EntryRatio, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice1, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice2, 'f', -1, 64),
			string(t.ExitReason),
			strconv.Itoa(t.HoldingBars),
			strconv.FormatFloat(t.PnL, 'f', -1, 64),
			strconv.FormatFloat(t.ReturnPct, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	fmt.Printf("[Report] Trade ledger saved: %s\n", filename)
	return nil
}

// PrintSummary prints the result summary to stdout.
func PrintSummary(result *Result) {
	fmt.Println("\n============================================================")
	fmt.Println("BACKTEST SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("\nTotal PnL:       %.4f\n", result.TotalPnL)
	fmt.Printf("\nPerformance Metrics:\n")
	fmt.Printf("  Sharpe Ratio:      %.2f\n", result.SharpeRatio)
	fmt.Printf("  Sortino Ratio:     %.2f\n", result.SortinoRatio)
	fmt.Printf("  Max Drawdown:      %.4f\n", result.MaxDrawdown)
	fmt.Printf("\nTrade Statistics:\n")
	fmt.Printf("  Total Trades:      %d\n", result.TotalTrades)
	fmt.Printf("  Win Trades:        %d (%.1f%%)\n", result.WinTrades, result.WinRate*100)
	fmt.Printf("  Loss Trades:       %d\n", result.LossTrades)
	fmt.Printf("  Profit Factor:     %.2f\n", result.ProfitFactor)
	fmt.Printf("  Avg PnL:           %.4f\n", result.AvgPnL)
	fmt.Println("============================================================")
}
