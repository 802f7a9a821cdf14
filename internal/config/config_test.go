package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateTradingConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero lot size", func(c *Config) { c.Trading.LotSize = 0 }, "trading.lot_size"},
		{"negative tick size", func(c *Config) { c.Trading.TickSize = -1 }, "trading.tick_size"},
		{"limit below lot", func(c *Config) { c.Trading.PositionLimit = 5 }, "trading.position_limit"},
		{"zero orders per side", func(c *Config) { c.Trading.MaxOrdersPerSide = 0 }, "trading.max_orders_per_side"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error %q does not name field %s", err, tc.field)
			}
		})
	}
}

func TestValidateAppMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App.Mode = "live"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown mode must fail validation")
	}

	cfg = DefaultConfig()
	cfg.App.Mode = "replay"
	if err := cfg.Validate(); err == nil {
		t.Error("replay mode without a file must fail validation")
	}

	cfg.App.ReplayFile = "market_data.jsonl"
	if err := cfg.Validate(); err != nil {
		t.Errorf("replay mode with a file should validate: %v", err)
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.LogLevel = "VERBOSE"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log level must fail validation")
	}

	cfg.System.LogLevel = "debug"
	if err := cfg.Validate(); err != nil {
		t.Errorf("log levels are case-insensitive: %v", err)
	}
}

func TestValidateJournalNeedsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("enabled journal without a path must fail validation")
	}

	cfg.Journal.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled journal needs no path: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
app:
  name: autotrader
  mode: sim
trading:
  lot_size: 10
  tick_size: 100
  position_limit: 100
  max_orders_per_side: 5
system:
  log_level: ${AUTOTRADER_TEST_LOG_LEVEL}
  cancel_on_exit: true
telemetry:
  metrics_port: 9090
  enable_metrics: true
`
	os.Setenv("AUTOTRADER_TEST_LOG_LEVEL", "DEBUG")
	defer os.Unsetenv("AUTOTRADER_TEST_LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.System.LogLevel != "DEBUG" {
		t.Errorf("log level = %q, want env-expanded DEBUG", cfg.System.LogLevel)
	}
	if cfg.Trading.TickSize != 100 || cfg.Trading.LotSize != 10 {
		t.Errorf("trading config not parsed: %+v", cfg.Trading)
	}
	if !cfg.System.CancelOnExit {
		t.Error("cancel_on_exit not parsed")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("missing file must return an error")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	bad := "app:\n  mode: sim\ntrading:\n  lot_size: 0\nsystem:\n  log_level: INFO\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid config must fail to load")
	}
}
