package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Feed struct {
		WebSocketURL     string        `yaml:"websocket_url"`
		APIKey           string        `yaml:"api_key"`
		Symbol           string        `yaml:"symbol"`
		PingInterval     time.Duration `yaml:"ping_interval"`
		BackoffBase      time.Duration `yaml:"backoff_base"`
		MaxReconnects    int           `yaml:"max_reconnects"`
		WindowCapacity   int           `yaml:"window_capacity"`
		SubscriberBuffer int           `yaml:"subscriber_buffer"`
	} `yaml:"feed"`
	Volatility struct {
		Lambda     float64 `yaml:"lambda"`
		DefaultPct float64 `yaml:"default_pct"`
	} `yaml:"volatility"`
	Trend struct {
		Window            int     `yaml:"window"`
		MinSamples        int     `yaml:"min_samples"`
		ThresholdFloorPct float64 `yaml:"threshold_floor_pct"`
		VolThresholdScale float64 `yaml:"vol_threshold_scale"`
		StrengthScalePct  float64 `yaml:"strength_scale_pct"`
	} `yaml:"trend"`
	Trading struct {
		SettleWait   time.Duration `yaml:"settle_wait"`
		DisplayReset time.Duration `yaml:"display_reset"`
	} `yaml:"trading"`
	Ledger struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ledger"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		Compression  string        `yaml:"compression"`
		RequiredAcks int           `yaml:"required_acks"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Stats struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"stats"`
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

	if v := os.Getenv("FEED_WS_URL"); v != "" {
		c.Feed.WebSocketURL = v
	}
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Feed.Symbol = v
	}
	if v := os.Getenv("LEDGER_BASE_URL"); v != "" {
		c.Ledger.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Stats.Redis.Addr = v
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = 10 * time.Second
	}
	if c.Feed.BackoffBase == 0 {
		c.Feed.BackoffBase = 500 * time.Millisecond
	}
	if c.Feed.MaxReconnects == 0 {
		c.Feed.MaxReconnects = 6
	}
	if c.Feed.WindowCapacity == 0 {
		c.Feed.WindowCapacity = 300
	}
	if c.Feed.SubscriberBuffer == 0 {
		c.Feed.SubscriberBuffer = 16
	}
	if c.Volatility.Lambda == 0 {
		c.Volatility.Lambda = 0.94
	}
	if c.Volatility.DefaultPct == 0 {
		c.Volatility.DefaultPct = 0.1
	}
	if c.Trend.Window == 0 {
		c.Trend.Window = 15
	}
	if c.Trend.MinSamples == 0 {
		c.Trend.MinSamples = 5
	}
	if c.Trend.ThresholdFloorPct == 0 {
		c.Trend.ThresholdFloorPct = 0.01
	}
	if c.Trend.VolThresholdScale == 0 {
		c.Trend.VolThresholdScale = 0.5
	}
	if c.Trend.StrengthScalePct == 0 {
		c.Trend.StrengthScalePct = 0.05
	}
	if c.Trading.SettleWait == 0 {
		c.Trading.SettleWait = 3 * time.Second
	}
	if c.Trading.DisplayReset == 0 {
		c.Trading.DisplayReset = 5 * time.Second
	}
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = 5 * time.Second
	}
	if c.Stats.TTL == 0 {
		c.Stats.TTL = 10 * time.Second
	}
	if c.Kafka.Compression == "" {
		c.Kafka.Compression = "gzip"
	}
	if c.Kafka.MaxAttempts == 0 {
		c.Kafka.MaxAttempts = 3
	}
	if c.Kafka.WriteTimeout == 0 {
		c.Kafka.WriteTimeout = 5 * time.Second
	}
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Feed.WebSocketURL == "" {
		return fmt.Errorf("feed.websocket_url is required")
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed.symbol is required")
	}
	if c.Ledger.BaseURL == "" {
		return fmt.Errorf("ledger.base_url is required")
	}
	if c.Volatility.Lambda <= 0 || c.Volatility.Lambda >= 1 {
		return fmt.Errorf("volatility.lambda must be in (0,1), got %v", c.Volatility.Lambda)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka.enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka.enabled")
	}
	return nil
}
