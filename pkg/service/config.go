// Package service bridges the analytics core to the message bus: it consumes
// bar updates published by the resampling layer over NATS and publishes
// per-pair signal snapshots for the alert and dashboard consumers.
package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/pairtrade-analytics/pkg/analytics"
)

// Config is the YAML configuration for the signal service.
type Config struct {
	NATSAddr string       `yaml:"nats_addr"`
	Signal   SignalConfig `yaml:"signal"`
	Pairs    []PairConfig `yaml:"pairs"`
}

// SignalConfig mirrors the analytics pipeline settings.
type SignalConfig struct {
	Method     string  `yaml:"method"`
	Window     int     `yaml:"window"`
	ProcessVar float64 `yaml:"process_var"`
	ObsVar     float64 `yaml:"obs_var"`
	MaxHistory int     `yaml:"max_history"` // bars kept per leg
}

// PairConfig selects one pair and timeframe to track.
type PairConfig struct {
	Symbol1   string `yaml:"symbol1"`
	Symbol2   string `yaml:"symbol2"`
	Timeframe string `yaml:"timeframe"` // e.g. "1m", "5m"
}

// LoadConfig loads and validates the service configuration.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.NATSAddr == "" {
		config.NATSAddr = "nats://localhost:4222"
	}
	if config.Signal.Method == "" {
		config.Signal.Method = string(analytics.MethodOLS)
	}
	if config.Signal.Window == 0 {
		config.Signal.Window = analytics.DefaultWindow
	}
	if config.Signal.ProcessVar == 0 {
		config.Signal.ProcessVar = 1e-5
	}
	if config.Signal.ObsVar == 0 {
		config.Signal.ObsVar = 1e-3
	}
	if config.Signal.MaxHistory == 0 {
		config.Signal.MaxHistory = 500
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch analytics.Method(c.Signal.Method) {
	case analytics.MethodOLS, analytics.MethodRobust, analytics.MethodKalman:
	default:
		return fmt.Errorf("signal: unknown method %q", c.Signal.Method)
	}
	if c.Signal.Window < 2 {
		return fmt.Errorf("signal: window must be >= 2")
	}
	if c.Signal.MaxHistory < c.Signal.Window {
		return fmt.Errorf("signal: max_history must be >= window")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	for i, p := range c.Pairs {
		if p.Symbol1 == "" || p.Symbol2 == "" || p.Timeframe == "" {
			return fmt.Errorf("pairs[%d]: symbol1, symbol2 and timeframe are required", i)
		}
		if p.Symbol1 == p.Symbol2 {
			return fmt.Errorf("pairs[%d]: symbols must differ", i)
		}
	}
	return nil
}
