package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Fyers struct {
		AppID           string        `yaml:"app_id"`
		AccessToken     string        `yaml:"access_token"`
		BaseURL         string        `yaml:"base_url"`
		FallbackBaseURL string        `yaml:"fallback_base_url"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		MaxRPS          float64       `yaml:"max_rps"`
	} `yaml:"fyers"`
	Market struct {
		Symbols            []string      `yaml:"symbols"`
		PollInterval       time.Duration `yaml:"poll_interval"`
		QuoteCacheTTL      time.Duration `yaml:"quote_cache_ttl"`
		MaxConcurrentFetch int           `yaml:"max_concurrent_fetch"`
		AlertCheckInterval time.Duration `yaml:"alert_check_interval"`
		FallbackEnabled    bool          `yaml:"fallback_enabled"`
		HistoryEnabled     bool          `yaml:"history_enabled"`
	} `yaml:"market"`
	Strategy struct {
		TickInterval     time.Duration        `yaml:"tick_interval"`
		ExecTimeout      time.Duration        `yaml:"exec_timeout"`
		FailureThreshold int                  `yaml:"failure_threshold"`
		Definitions      []StrategyDefinition `yaml:"definitions"`
	} `yaml:"strategy"`
	Alerts []AlertDefinition `yaml:"alerts"`
	Risk struct {
		MaxPositionSize float64 `yaml:"max_position_size"`
		MaxRiskPercent  float64 `yaml:"max_risk_percent"`
		DailyLossLimit  float64 `yaml:"daily_loss_limit"`
	} `yaml:"risk"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		SignalTopic  string        `yaml:"signal_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		MaxAttempts  int           `yaml:"max_attempts"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
}

// StrategyDefinition seeds the strategy store at startup. Existing
// definitions in the store are never overwritten.
type StrategyDefinition struct {
	ID     string `yaml:"id"`
	Symbol string `yaml:"symbol"`
	Type   string `yaml:"type"`
	Params string `yaml:"params"` // JSON, interpreted by the evaluator
	Status string `yaml:"status"`
}

// AlertDefinition seeds a price alert at startup.
type AlertDefinition struct {
	Symbol    string  `yaml:"symbol"`
	Direction string  `yaml:"direction"` // above or below
	Target    float64 `yaml:"target"`
	Message   string  `yaml:"message"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FYERS_APP_ID"); v != "" {
		c.Fyers.AppID = v
	}
	if v := os.Getenv("FYERS_ACCESS_TOKEN"); v != "" {
		c.Fyers.AccessToken = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = []string{"NIFTY", "BANKNIFTY", "SENSEX"}
	}
	if c.Market.PollInterval <= 0 {
		c.Market.PollInterval = time.Second
	}
	if c.Market.QuoteCacheTTL <= 0 {
		c.Market.QuoteCacheTTL = time.Second
	}
	if c.Market.MaxConcurrentFetch <= 0 {
		c.Market.MaxConcurrentFetch = 8
	}
	if c.Market.AlertCheckInterval <= 0 {
		c.Market.AlertCheckInterval = 5 * time.Second
	}
	if c.Strategy.TickInterval <= 0 {
		c.Strategy.TickInterval = 10 * time.Second
	}
	if c.Strategy.ExecTimeout <= 0 {
		c.Strategy.ExecTimeout = 2 * time.Second
	}
	if c.Strategy.FailureThreshold <= 0 {
		c.Strategy.FailureThreshold = 3
	}
	if c.Fyers.RequestTimeout <= 0 {
		c.Fyers.RequestTimeout = 3 * time.Second
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "pulsetrade"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = 1
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.WriteTimeout <= 0 {
		c.Kafka.WriteTimeout = 10 * time.Second
	}
	if c.Kafka.ReadTimeout <= 0 {
		c.Kafka.ReadTimeout = 10 * time.Second
	}
	if c.Kafka.MaxAttempts <= 0 {
		c.Kafka.MaxAttempts = 3
	}
}

// Validate checks if the configuration is valid. A failure here is fatal:
// the process refuses to start on a broken configuration.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Fyers.AppID == "" {
		return fmt.Errorf("fyers.app_id is required")
	}
	if c.Fyers.AccessToken == "" {
		return fmt.Errorf("fyers.access_token is required")
	}
	if c.Fyers.BaseURL == "" {
		return fmt.Errorf("fyers.base_url is required")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	if c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("risk.max_position_size must be positive")
	}
	if c.Risk.MaxRiskPercent <= 0 || c.Risk.MaxRiskPercent > 100 {
		return fmt.Errorf("risk.max_risk_percent must be in (0, 100], got %v", c.Risk.MaxRiskPercent)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	for i, d := range c.Strategy.Definitions {
		if d.ID == "" || d.Symbol == "" || d.Type == "" {
			return fmt.Errorf("strategy.definitions[%d]: id, symbol and type are required", i)
		}
	}
	for i, a := range c.Alerts {
		if a.Symbol == "" || (a.Direction != "above" && a.Direction != "below") || a.Target <= 0 {
			return fmt.Errorf("alerts[%d]: symbol, direction above|below and positive target are required", i)
		}
	}
	return nil
}
