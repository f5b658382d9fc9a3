package backtest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
)

// Config is the YAML backtest configuration consumed by cmd/backtest.
type Config struct {
	Pair     PairSettings     `yaml:"pair"`
	Signal   SignalSettings   `yaml:"signal"`
	Strategy StrategySettings `yaml:"strategy"`
	Output   OutputSettings   `yaml:"output"`
}

// PairSettings selects the instrument pair and its bar data.
type PairSettings struct {
	Symbol1     string `yaml:"symbol1"`
	Symbol2     string `yaml:"symbol2"`
	DataPath    string `yaml:"data_path"`    // directory containing <symbol>.csv
	BarInterval string `yaml:"bar_interval"` // Go duration, e.g. "1m", "1h"
}

// SignalSettings configures the analytics pipeline.
type SignalSettings struct {
	Method          string  `yaml:"method"` // ols, robust, kalman
	Window          int     `yaml:"window"`
	ProcessVar      float64 `yaml:"process_var"`
	ObsVar          float64 `yaml:"obs_var"`
	RunStationarity bool    `yaml:"run_stationarity"`
	ADFLag          int     `yaml:"adf_lag"`
}

// StrategySettings configures the trade state machine.
type StrategySettings struct {
	EntryThreshold float64 `yaml:"entry_threshold"`
	ExitThreshold  float64 `yaml:"exit_threshold"`
	MaxHoldingBars int     `yaml:"max_holding_bars"`
	CostRate       float64 `yaml:"cost_rate"`
	StopLoss       float64 `yaml:"stop_loss"`
	TakeProfit     float64 `yaml:"take_profit"`
}

// OutputSettings configures report generation.
type OutputSettings struct {
	ResultDir      string `yaml:"result_dir"`
	SaveTrades     bool   `yaml:"save_trades"`
	GenerateReport bool   `yaml:"generate_report"`
	ReportFormat   string `yaml:"report_format"` // markdown, json
}

// LoadConfig loads and validates a backtest configuration from a YAML file.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Pair.BarInterval == "" {
		c.Pair.BarInterval = "1m"
	}
	if c.Signal.Method == "" {
		c.Signal.Method = string(analytics.MethodOLS)
	}
	if c.Signal.Window == 0 {
		c.Signal.Window = analytics.DefaultWindow
	}
	if c.Signal.ProcessVar == 0 {
		c.Signal.ProcessVar = 1e-5
	}
	if c.Signal.ObsVar == 0 {
		c.Signal.ObsVar = 1e-3
	}
	if c.Strategy.EntryThreshold == 0 {
		c.Strategy.EntryThreshold = 2.0
	}
	if c.Strategy.ExitThreshold == 0 {
		c.Strategy.ExitThreshold = 0.5
	}
	if c.Output.ResultDir == "" {
		c.Output.ResultDir = "./results"
	}
	if c.Output.ReportFormat == "" {
		c.Output.ReportFormat = "markdown"
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Pair.Symbol1 == "" || c.Pair.Symbol2 == "" {
		return fmt.Errorf("pair: symbol1 and symbol2 are required")
	}
	if c.Pair.Symbol1 == c.Pair.Symbol2 {
		return fmt.Errorf("pair: symbol1 and symbol2 must differ")
	}
	if c.Pair.DataPath == "" {
		return fmt.Errorf("pair: data_path is required")
	}
	if _, err := time.ParseDuration(c.Pair.BarInterval); err != nil {
		return fmt.Errorf("pair: invalid bar_interval: %w", err)
	}

	switch analytics.Method(c.Signal.Method) {
	case analytics.MethodOLS, analytics.MethodRobust, analytics.MethodKalman:
	default:
		return fmt.Errorf("signal: unknown method %q", c.Signal.Method)
	}
	if c.Signal.Window < 2 {
		return fmt.Errorf("signal: window must be >= 2")
	}
	if c.Signal.ProcessVar <= 0 || c.Signal.ObsVar <= 0 {
		return fmt.Errorf("signal: process_var and obs_var must be > 0")
	}

	if c.Strategy.EntryThreshold <= 0 {
		return fmt.Errorf("strategy: entry_threshold must be > 0")
	}
	if c.Strategy.ExitThreshold < 0 || c.Strategy.ExitThreshold >= c.Strategy.EntryThreshold {
		return fmt.Errorf("strategy: exit_threshold must be in [0, entry_threshold)")
	}
	if c.Strategy.MaxHoldingBars < 0 {
		return fmt.Errorf("strategy: max_holding_bars must be >= 0")
	}
	if c.Strategy.CostRate < 0 {
		return fmt.Errorf("strategy: cost_rate must be >= 0")
	}
	if c.Strategy.StopLoss < 0 || c.Strategy.TakeProfit < 0 {
		return fmt.Errorf("strategy: stop_loss and take_profit must be >= 0")
	}

	switch c.Output.ReportFormat {
	case "markdown", "json":
	default:
		return fmt.Errorf("output: unknown report_format %q", c.Output.ReportFormat)
	}

	return nil
}

// SignalConfig converts the signal settings into the analytics form.
func (c *Config) SignalConfig() analytics.SignalConfig {
	cfg := analytics.SignalConfig{
		Method:          analytics.Method(c.Signal.Method),
		Window:          c.Signal.Window,
		RunStationarity: c.Signal.RunStationarity,
		ADFLag:          c.Signal.ADFLag,
	}
	if cfg.ADFLag == 0 {
		cfg.ADFLag = -1
	}
	cfg.Kalman = analytics.DefaultKalmanConfig()
	cfg.Kalman.ProcessVar = c.Signal.ProcessVar
	cfg.Kalman.ObsVar = c.Signal.ObsVar
	return cfg
}

// EngineConfig converts the strategy settings into the engine form.
func (c *Config) EngineConfig() EngineConfig {
	interval, _ := time.ParseDuration(c.Pair.BarInterval)
	return EngineConfig{
		EntryThreshold: c.Strategy.EntryThreshold,
		ExitThreshold:  c.Strategy.ExitThreshold,
		MaxHoldingBars: c.Strategy.MaxHoldingBars,
		CostRate:       c.Strategy.CostRate,
		StopLoss:       c.Strategy.StopLoss,
		TakeProfit:     c.Strategy.TakeProfit,
		MinValidBars:   c.Signal.Window,
		BarsPerYear:    BarsPerYear(interval),
	}
}
