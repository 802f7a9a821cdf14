// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	App        AppConfig        `yaml:"app"`
	Trading    TradingConfig    `yaml:"trading"`
	System     SystemConfig     `yaml:"system"`
	Safety     SafetyConfig     `yaml:"safety"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Journal    JournalConfig    `yaml:"journal"`
	LiveServer LiveServerConfig `yaml:"liveserver"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name string `yaml:"name"`
	// Mode selects the execution session: "replay" consumes a recorded
	// market data file, "sim" runs against the built-in simulator.
	Mode string `yaml:"mode"`
	// ReplayFile is the JSONL market data file consumed in replay mode.
	ReplayFile string `yaml:"replay_file"`
}

// TradingConfig contains quoting parameters
type TradingConfig struct {
	LotSize          int64 `yaml:"lot_size"`
	TickSize         int64 `yaml:"tick_size"`
	PositionLimit    int64 `yaml:"position_limit"`
	MaxOrdersPerSide int   `yaml:"max_orders_per_side"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel     string `yaml:"log_level"`
	CancelOnExit bool   `yaml:"cancel_on_exit"`
}

// SafetyConfig contains hedge breaker settings
type SafetyConfig struct {
	// MaxHedgeFailures trips the breaker after this many consecutive
	// unsuccessful hedges. Zero disables the breaker.
	MaxHedgeFailures int `yaml:"max_hedge_failures"`
	// HedgeCooldownSeconds re-arms a tripped breaker after this delay.
	HedgeCooldownSeconds int `yaml:"hedge_cooldown_seconds"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// JournalConfig contains trade journal settings
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LiveServerConfig contains live monitoring websocket settings
type LiveServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// ThrottleConfig contains session rate limit settings
type ThrottleConfig struct {
	// OpsPerSecond caps outbound operations. Zero disables throttling.
	OpsPerSecond int `yaml:"ops_per_second"`
	// Burst is the bucket size; defaults to OpsPerSecond when zero.
	Burst int `yaml:"burst"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateAppConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateTradingConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.validateAuxConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateAppConfig() error {
	validModes := []string{"replay", "sim"}
	if !contains(validModes, c.App.Mode) {
		return ValidationError{
			Field:   "app.mode",
			Value:   c.App.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validModes, ", ")),
		}
	}

	if c.App.Mode == "replay" && c.App.ReplayFile == "" {
		return ValidationError{
			Field:   "app.replay_file",
			Message: "replay mode requires a market data file",
		}
	}

	return nil
}

func (c *Config) validateTradingConfig() error {
	if c.Trading.LotSize <= 0 {
		return ValidationError{
			Field:   "trading.lot_size",
			Value:   c.Trading.LotSize,
			Message: "lot size must be positive",
		}
	}

	if c.Trading.TickSize <= 0 {
		return ValidationError{
			Field:   "trading.tick_size",
			Value:   c.Trading.TickSize,
			Message: "tick size must be positive",
		}
	}

	if c.Trading.PositionLimit < c.Trading.LotSize {
		return ValidationError{
			Field:   "trading.position_limit",
			Value:   c.Trading.PositionLimit,
			Message: "position limit must cover at least one lot",
		}
	}

	if c.Trading.MaxOrdersPerSide < 1 {
		return ValidationError{
			Field:   "trading.max_orders_per_side",
			Value:   c.Trading.MaxOrdersPerSide,
			Message: "at least one order per side is required",
		}
	}

	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

func (c *Config) validateAuxConfig() error {
	if c.Telemetry.EnableMetrics && (c.Telemetry.MetricsPort < 1 || c.Telemetry.MetricsPort > 65535) {
		return ValidationError{
			Field:   "telemetry.metrics_port",
			Value:   c.Telemetry.MetricsPort,
			Message: "must be a valid TCP port",
		}
	}

	if c.LiveServer.Enabled && (c.LiveServer.Port < 1 || c.LiveServer.Port > 65535) {
		return ValidationError{
			Field:   "liveserver.port",
			Value:   c.LiveServer.Port,
			Message: "must be a valid TCP port",
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return ValidationError{
			Field:   "journal.path",
			Message: "journal requires a database path",
		}
	}

	if c.Throttle.OpsPerSecond < 0 {
		return ValidationError{
			Field:   "throttle.ops_per_second",
			Value:   c.Throttle.OpsPerSecond,
			Message: "must not be negative",
		}
	}

	return nil
}

// String returns the YAML rendering of the configuration
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "autotrader",
			Mode: "sim",
		},
		Trading: TradingConfig{
			LotSize:          10,
			TickSize:         100,
			PositionLimit:    100,
			MaxOrdersPerSide: 5,
		},
		System: SystemConfig{
			LogLevel:     "INFO",
			CancelOnExit: true,
		},
		Safety: SafetyConfig{
			MaxHedgeFailures:     3,
			HedgeCooldownSeconds: 30,
		},
		Telemetry: TelemetryConfig{
			MetricsPort:   9090,
			EnableMetrics: true,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "autotrader.db",
		},
		LiveServer: LiveServerConfig{
			Enabled: false,
			Port:    8080,
		},
		Throttle: ThrottleConfig{
			OpsPerSecond: 50,
		},
	}
}
