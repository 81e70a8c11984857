// Package config holds the file configuration for the termlink CLI:
// terminal endpoint, strategy knobs, pair timings, journal sinks and
// logging. Files may be YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Terminal TerminalConfig `json:"terminal" yaml:"terminal"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Pair     PairConfig     `json:"pair" yaml:"pair"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// TerminalConfig locates the terminal bridge.
type TerminalConfig struct {
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty"`
	DialTimeout string `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"` // e.g. "5s"
	CallTimeout string `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"` // e.g. "3s"
}

// ParseDialTimeout converts the dial timeout string to a duration.
func (t TerminalConfig) ParseDialTimeout() (time.Duration, error) {
	return parseDuration(t.DialTimeout)
}

// ParseCallTimeout converts the per-call timeout string to a duration.
func (t TerminalConfig) ParseCallTimeout() (time.Duration, error) {
	return parseDuration(t.CallTimeout)
}

// StrategyConfig contains strategy parameters.
type StrategyConfig struct {
	Name         string  `json:"name" yaml:"name"` // "straddle" or "hedge"
	Symbol       string  `json:"symbol" yaml:"symbol"`
	RiskFraction float64 `json:"risk_fraction" yaml:"risk_fraction"` // of equity, e.g. 0.01
	StopPoints   float64 `json:"stop_points" yaml:"stop_points"`
	TakePoints   float64 `json:"take_points,omitempty" yaml:"take_points,omitempty"`
	OffsetPoints float64 `json:"offset_points,omitempty" yaml:"offset_points,omitempty"`
}

// PairConfig tunes the paired-order lifecycle. Durations are strings
// like "2s" or "5m"; empty fields fall back to the engine defaults.
type PairConfig struct {
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	Timeout      string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	CloseFilled  bool   `json:"close_filled,omitempty" yaml:"close_filled,omitempty"`
	HoldFor      string `json:"hold_for,omitempty" yaml:"hold_for,omitempty"`
}

// ParsePollInterval converts the poll interval string to a duration.
func (p PairConfig) ParsePollInterval() (time.Duration, error) {
	return parseDuration(p.PollInterval)
}

// ParseTimeout converts the timeout string to a duration.
func (p PairConfig) ParseTimeout() (time.Duration, error) {
	return parseDuration(p.Timeout)
}

// ParseHoldFor converts the hold string to a duration.
func (p PairConfig) ParseHoldFor() (time.Duration, error) {
	return parseDuration(p.HoldFor)
}

// JournalConfig selects the journal sink.
type JournalConfig struct {
	Kind       string `json:"kind" yaml:"kind"` // "csv", "sqlite" or "none"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	PairsFile  string `json:"pairs_file,omitempty" yaml:"pairs_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig feeds logger.Init.
type LoggingConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// MetricsConfig controls the /metrics endpoint. An empty listen address
// disables it.
type MetricsConfig struct {
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty"` // e.g. ":9187"
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON, then validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, as YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if isYAMLPath(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func isYAMLPath(path string) bool {
	return (len(path) > 5 && path[len(path)-5:] == ".yaml") ||
		(len(path) > 4 && path[len(path)-4:] == ".yml")
}

// Validate checks the configuration for use by the run command.
func (c *Config) Validate() error {
	if c.Terminal.Endpoint == "" {
		return fmt.Errorf("terminal.endpoint is required")
	}
	if _, err := c.Terminal.ParseDialTimeout(); err != nil {
		return fmt.Errorf("terminal.dial_timeout: %w", err)
	}
	if _, err := c.Terminal.ParseCallTimeout(); err != nil {
		return fmt.Errorf("terminal.call_timeout: %w", err)
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Symbol == "" {
		return fmt.Errorf("strategy.symbol is required")
	}
	if c.Strategy.RiskFraction <= 0 || c.Strategy.RiskFraction > 1 {
		return fmt.Errorf("strategy.risk_fraction must be between 0 and 1")
	}
	if c.Strategy.StopPoints <= 0 {
		return fmt.Errorf("strategy.stop_points must be positive")
	}
	if c.Strategy.TakePoints < 0 {
		return fmt.Errorf("strategy.take_points must not be negative")
	}
	if c.Strategy.OffsetPoints < 0 {
		return fmt.Errorf("strategy.offset_points must not be negative")
	}

	if _, err := c.Pair.ParsePollInterval(); err != nil {
		return fmt.Errorf("pair.poll_interval: %w", err)
	}
	if _, err := c.Pair.ParseTimeout(); err != nil {
		return fmt.Errorf("pair.timeout: %w", err)
	}
	if _, err := c.Pair.ParseHoldFor(); err != nil {
		return fmt.Errorf("pair.hold_for: %w", err)
	}

	switch c.Journal.Kind {
	case "", "none":
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.PairsFile == "" {
			return fmt.Errorf("journal orders_file and pairs_file required for CSV kind")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite kind")
		}
	default:
		return fmt.Errorf("journal.kind must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Terminal: TerminalConfig{
			Endpoint:    "ws://127.0.0.1:8765/terminal",
			DialTimeout: "5s",
			CallTimeout: "3s",
		},
		Strategy: StrategyConfig{
			Name:         "straddle",
			Symbol:       "EURUSD",
			RiskFraction: 0.01,
			StopPoints:   200,
			TakePoints:   400,
			OffsetPoints: 150,
		},
		Pair: PairConfig{
			PollInterval: "2s",
			Timeout:      "5m",
		},
		Journal: JournalConfig{
			Kind:       "csv",
			OrdersFile: "./orders.csv",
			PairsFile:  "./pairs.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
