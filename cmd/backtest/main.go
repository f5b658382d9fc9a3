package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
	"github.com/yourusername/pairtrade-analytics/pkg/backtest"
)

const (
	appName    = "PairtradeBacktest"
	appVersion = "1.0.0"
)

var (
	configFile = flag.String("config", "./config/backtest.yaml", "Configuration file path")
	entryZ     = flag.Float64("entry", 0, "Entry z-score threshold (overrides config)")
	exitZ      = flag.Float64("exit", -1, "Exit z-score threshold (overrides config)")
	outputDir  = flag.String("output", "", "Output directory (overrides config)")
	version    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	log.Printf("[Main] Loading configuration from: %s", *configFile)
	config, err := backtest.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("[Main] Failed to load config: %v", err)
	}

	if *entryZ > 0 {
		config.Strategy.EntryThreshold = *entryZ
		log.Printf("[Main] Entry threshold overridden: %.2f", *entryZ)
	}
	if *exitZ >= 0 {
		config.Strategy.ExitThreshold = *exitZ
		log.Printf("[Main] Exit threshold overridden: %.2f", *exitZ)
	}
	if *outputDir != "" {
		config.Output.ResultDir = *outputDir
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("[Main] Invalid config after overrides: %v", err)
	}

	log.Printf("[Main] Pair: %s/%s, method: %s, entry_z=%.2f exit_z=%.2f",
		config.Pair.Symbol1, config.Pair.Symbol2, config.Signal.Method,
		config.Strategy.EntryThreshold, config.Strategy.ExitThreshold)

	// Load and align the bar data.
	reader := backtest.NewPairDataReader(config)
	pair, err := reader.Load()
	if err != nil {
		log.Fatalf("[Main] Failed to load data: %v", err)
	}

	// Run the analytics pipeline.
	gen := analytics.NewSignalGenerator()
	snapshot, err := gen.Snapshot(pair, config.SignalConfig())
	if err != nil {
		log.Fatalf("[Main] Signal pipeline failed: %v", err)
	}
	log.Printf("[Main] Hedge ratio: %.4f (method %s)", snapshot.Hedge.Ratio, snapshot.Hedge.Method)
	if snapshot.Stationarity != nil {
		log.Printf("[Main] ADF stat %.4f (p=%.4f), stationary=%v",
			snapshot.Stationarity.Statistic, snapshot.Stationarity.PValue, snapshot.Stationarity.IsStationary)
	}
	if snapshot.HalfLife != nil {
		if snapshot.HalfLife.Infinite {
			log.Println("[Main] Half-life: no mean reversion measured")
		} else {
			log.Printf("[Main] Half-life: %.1f bars (low confidence: %v)",
				snapshot.HalfLife.Bars, snapshot.HalfLife.LowConfidence)
		}
	}

	// Replay through the engine.
	engine, err := backtest.NewEngine(config.EngineConfig())
	if err != nil {
		log.Fatalf("[Main] Failed to create engine: %v", err)
	}
	result, err := engine.Run(pair, snapshot.ZScore, snapshot.Hedge)
	if err != nil {
		log.Fatalf("[Main] Backtest failed: %v", err)
	}

	backtest.PrintSummary(result)

	if config.Output.GenerateReport {
		generator := backtest.NewReportGenerator(config, result)
		if err := generator.Generate(); err != nil {
			log.Fatalf("[Main] Failed to generate report: %v", err)
		}
	}
}
