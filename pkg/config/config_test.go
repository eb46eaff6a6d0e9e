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
feed:
  websocket_url: wss://example.test/ws
  symbol: "BINANCE:BTCUSDT"
ledger:
  base_url: http://ledger.test
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Feed.BackoffBase != 500*time.Millisecond {
		t.Fatalf("backoff base = %v", cfg.Feed.BackoffBase)
	}
	if cfg.Feed.MaxReconnects != 6 {
		t.Fatalf("max reconnects = %d", cfg.Feed.MaxReconnects)
	}
	if cfg.Feed.WindowCapacity != 300 {
		t.Fatalf("window capacity = %d", cfg.Feed.WindowCapacity)
	}
	if cfg.Volatility.Lambda != 0.94 {
		t.Fatalf("lambda = %v", cfg.Volatility.Lambda)
	}
	if cfg.Trend.Window != 15 || cfg.Trend.MinSamples != 5 {
		t.Fatalf("trend defaults = %+v", cfg.Trend)
	}
	if cfg.Trading.SettleWait != 3*time.Second {
		t.Fatalf("settle wait = %v", cfg.Trading.SettleWait)
	}
	if cfg.Trading.DisplayReset != 5*time.Second {
		t.Fatalf("display reset = %v", cfg.Trading.DisplayReset)
	}
	if cfg.Stats.TTL != 10*time.Second {
		t.Fatalf("stats ttl = %v", cfg.Stats.TTL)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
trading:
  settle_wait: 1500ms
  display_reset: 7s
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Trading.SettleWait != 1500*time.Millisecond {
		t.Fatalf("settle wait = %v", cfg.Trading.SettleWait)
	}
	if cfg.Trading.DisplayReset != 7*time.Second {
		t.Fatalf("display reset = %v", cfg.Trading.DisplayReset)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"no environment": `
feed:
  websocket_url: wss://example.test/ws
  symbol: X
ledger:
  base_url: http://ledger.test
`,
		"no feed url": `
environment: test
feed:
  symbol: X
ledger:
  base_url: http://ledger.test
`,
		"no ledger": `
environment: test
feed:
  websocket_url: wss://example.test/ws
  symbol: X
`,
		"bad lambda": minimalConfig + `
volatility:
  lambda: 1.5
`,
		"kafka without brokers": minimalConfig + `
kafka:
  enabled: true
  topic: settlements
`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FEED_WS_URL", "wss://override.test/ws")
	t.Setenv("SYMBOL", "BINANCE:ETHUSDT")
	t.Setenv("LEDGER_BASE_URL", "http://override-ledger.test")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Feed.WebSocketURL != "wss://override.test/ws" {
		t.Fatalf("ws url = %s", cfg.Feed.WebSocketURL)
	}
	if cfg.Feed.Symbol != "BINANCE:ETHUSDT" {
		t.Fatalf("symbol = %s", cfg.Feed.Symbol)
	}
	if cfg.Ledger.BaseURL != "http://override-ledger.test" {
		t.Fatalf("ledger url = %s", cfg.Ledger.BaseURL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
}
