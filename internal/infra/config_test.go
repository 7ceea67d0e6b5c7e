package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Exchange.Testnet {
		t.Error("default config should target the testnet")
	}
	if cfg.Exchange.RestURL != "https://testnet.binancefuture.com" {
		t.Errorf("unexpected rest url %q", cfg.Exchange.RestURL)
	}
	if got := cfg.GridPollInterval(); got != 60*time.Second {
		t.Errorf("grid poll interval = %v, want 60s", got)
	}
	if got := cfg.OcoPollInterval(); got != 30*time.Second {
		t.Errorf("oco poll interval = %v, want 30s", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Exchange.RestURL == "" {
		t.Error("fallback config has no rest url")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
exchange:
  rest_url: https://fapi.binance.com
  testnet: false
strategy:
  grid_poll_interval_sec: 15
logging:
  level: debug
metrics:
  listen_addr: ":9105"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Exchange.RestURL != "https://fapi.binance.com" {
		t.Errorf("rest url = %q", cfg.Exchange.RestURL)
	}
	if cfg.Exchange.Testnet {
		t.Error("testnet should be overridden to false")
	}
	if cfg.GridPollInterval() != 15*time.Second {
		t.Errorf("grid poll interval = %v, want 15s", cfg.GridPollInterval())
	}
	// Keys the file does not mention keep their defaults.
	if cfg.Strategy.OcoPollIntervalSec != 30 {
		t.Errorf("oco poll interval sec = %d, want default 30", cfg.Strategy.OcoPollIntervalSec)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Metrics.ListenAddr != ":9105" {
		t.Errorf("metrics listen addr = %q", cfg.Metrics.ListenAddr)
	}
}

func TestLoadConfigRejectsBadIntervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
strategy:
  grid_poll_interval_sec: -1
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for negative poll interval")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
exchange:
  api_key: file-key
  api_secret: file-secret
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("BINANCE_SECRET_KEY", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Exchange.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.Exchange.APIKey)
	}
	// An empty env var does not clobber the file value.
	if cfg.Exchange.APISecret != "file-secret" {
		t.Errorf("api secret = %q, want file value", cfg.Exchange.APISecret)
	}
}
