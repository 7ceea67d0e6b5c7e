package infra

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Secrets may come from the
// config file but environment variables always override them.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Exchange struct {
		RestURL      string `yaml:"rest_url"`
		StreamURL    string `yaml:"stream_url"`
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		Testnet      bool   `yaml:"testnet"`
		RecvWindowMS int    `yaml:"recv_window_ms"`
	} `yaml:"exchange"`

	Strategy struct {
		GridPollIntervalSec int `yaml:"grid_poll_interval_sec"`
		OcoPollIntervalSec  int `yaml:"oco_poll_interval_sec"`
	} `yaml:"strategy"`

	Analytics struct {
		HistoricalCSV string `yaml:"historical_csv"`
		SentimentCSV  string `yaml:"sentiment_csv"`
	} `yaml:"analytics"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Metrics struct {
		// ListenAddr serves prometheus metrics on /metrics when set,
		// e.g. ":9105". Empty disables the listener.
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

// DefaultConfig returns the testnet configuration used when no config
// file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "binance-futures-bot"
	cfg.Exchange.RestURL = "https://testnet.binancefuture.com"
	cfg.Exchange.StreamURL = "wss://stream.binancefuture.com"
	cfg.Exchange.Testnet = true
	cfg.Exchange.RecvWindowMS = 5000
	cfg.Strategy.GridPollIntervalSec = 60
	cfg.Strategy.OcoPollIntervalSec = 30
	cfg.Logging.Level = "info"
	cfg.Logging.File = "bot.log"
	cfg.Journal.Path = "bot_journal.db"
	overrideWithEnv(cfg)
	return cfg
}

// LoadConfig reads and parses the config file, then applies environment
// overrides and validates the result. A missing file falls back to
// DefaultConfig so the bot works out of the box against the testnet.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Exchange.RestURL == "" {
		return fmt.Errorf("exchange rest_url is required")
	}
	if c.Strategy.GridPollIntervalSec <= 0 {
		return fmt.Errorf("grid poll interval must be positive")
	}
	if c.Strategy.OcoPollIntervalSec <= 0 {
		return fmt.Errorf("oco poll interval must be positive")
	}
	return nil
}

// GridPollInterval returns the grid monitor polling period.
func (c *Config) GridPollInterval() time.Duration {
	return time.Duration(c.Strategy.GridPollIntervalSec) * time.Second
}

// OcoPollInterval returns the OCO monitor polling period.
func (c *Config) OcoPollInterval() time.Duration {
	return time.Duration(c.Strategy.OcoPollIntervalSec) * time.Second
}

// overrideWithEnv applies environment variables on top of file values.
// Environment always wins so keys can stay out of config files.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("BINANCE_API_KEY"); key != "" {
		cfg.Exchange.APIKey = key
	}
	if secret := os.Getenv("BINANCE_SECRET_KEY"); secret != "" {
		cfg.Exchange.APISecret = secret
	}
	if url := os.Getenv("BINANCE_REST_URL"); url != "" {
		cfg.Exchange.RestURL = url
	}
}
