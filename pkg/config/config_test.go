package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
fyers:
  app_id: app
  access_token: token
  base_url: https://api.fyers.in
risk:
  max_position_size: 100
  max_risk_percent: 5
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Market.Symbols) != 3 || cfg.Market.Symbols[0] != "NIFTY" {
		t.Fatalf("unexpected default symbols %v", cfg.Market.Symbols)
	}
	if cfg.Market.PollInterval != time.Second {
		t.Fatalf("unexpected poll interval %v", cfg.Market.PollInterval)
	}
	if cfg.Strategy.TickInterval != 10*time.Second {
		t.Fatalf("unexpected strategy tick %v", cfg.Strategy.TickInterval)
	}
	if cfg.Strategy.FailureThreshold != 3 {
		t.Fatalf("unexpected failure threshold %d", cfg.Strategy.FailureThreshold)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
risk:
  max_position_size: 100
  max_risk_percent: 5
`))
	if err == nil {
		t.Fatal("expected error for missing fyers credentials")
	}
}

func TestLoadBadRiskPercent(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
fyers:
  app_id: app
  access_token: token
  base_url: https://api.fyers.in
risk:
  max_position_size: 100
  max_risk_percent: 150
`))
	if err == nil {
		t.Fatal("expected error for out-of-range risk percent")
	}
}

func TestLoadBadStrategyDefinition(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
strategy:
  definitions:
    - id: s1
      type: threshold
`))
	if err == nil {
		t.Fatal("expected error for definition without symbol")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "RELIANCE,TCS")
	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Market.Symbols) != 2 || cfg.Market.Symbols[1] != "TCS" {
		t.Fatalf("unexpected symbols %v", cfg.Market.Symbols)
	}
}

func TestLoadKafkaAndMetricsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics path %q", cfg.Metrics.Path)
	}
	if cfg.Market.AlertCheckInterval != 5*time.Second {
		t.Fatalf("unexpected alert check interval %v", cfg.Market.AlertCheckInterval)
	}
	if cfg.Kafka.RequiredAcks != 1 {
		t.Fatalf("unexpected kafka acks %d", cfg.Kafka.RequiredAcks)
	}
	if cfg.Kafka.Compression != "gzip" {
		t.Fatalf("unexpected kafka compression %q", cfg.Kafka.Compression)
	}
	if cfg.Kafka.WriteTimeout != 10*time.Second || cfg.Kafka.ReadTimeout != 10*time.Second {
		t.Fatalf("unexpected kafka timeouts %v/%v", cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout)
	}
	if cfg.Kafka.MaxAttempts != 3 {
		t.Fatalf("unexpected kafka attempts %d", cfg.Kafka.MaxAttempts)
	}
}
