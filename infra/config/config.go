// Package config loads the engine configuration from a YAML file, applies
// environment overrides, and validates it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name string `yaml:"name"`
	} `yaml:"app"`

	Symbols []string `yaml:"symbols"`

	Feed struct {
		URL          string `yaml:"url"`
		TickScale    int32  `yaml:"tick_scale"`
		QueueSize    uint64 `yaml:"queue_size"`
		ReadTimeout  int    `yaml:"read_timeout_sec"`
		PingInterval int    `yaml:"ping_interval_sec"`
	} `yaml:"feed"`

	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		TradeTopic     string   `yaml:"trade_topic"`
		TopOfBookTopic string   `yaml:"top_of_book_topic"`
		FlushInterval  int      `yaml:"flush_interval_ms"`
	} `yaml:"kafka"`

	Outbox struct {
		Dir string `yaml:"dir"`
	} `yaml:"outbox"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	GRPC struct {
		Addr string `yaml:"addr"`
	} `yaml:"grpc"`

	Logging struct {
		Level      string `yaml:"level"`
		Dir        string `yaml:"dir"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields the engine cannot run without.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Feed.URL != "" &&
		!strings.HasPrefix(c.Feed.URL, "ws://") && !strings.HasPrefix(c.Feed.URL, "wss://") {
		return fmt.Errorf("invalid feed URL: %s", c.Feed.URL)
	}
	if c.Feed.TickScale < 0 || c.Feed.TickScale > 18 {
		return fmt.Errorf("tick_scale must be in [0, 18], got %d", c.Feed.TickScale)
	}
	if c.GRPC.Addr == "" {
		return fmt.Errorf("grpc.addr is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.TradeTopic == "" {
		return fmt.Errorf("kafka.trade_topic is required when brokers are set")
	}
	return nil
}

// FlushInterval returns the broadcaster flush interval with its default.
func (c *Config) FlushInterval() time.Duration {
	if c.Kafka.FlushInterval <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Kafka.FlushInterval) * time.Millisecond
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("ENGINE_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("ENGINE_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("ENGINE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}
