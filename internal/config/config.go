package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the application
type Config struct {
	// ListenAddr is the address and port for the web server
	ListenAddr string `toml:"listen_addr"`

	// DatabasePath is the SQLite file holding the rejection journal
	DatabasePath string `toml:"database_path"`

	// LogDir enables file logging when set
	LogDir string `toml:"log_dir"`

	// MessageType is the inbound message name routed to the chart controller
	MessageType string `toml:"message_type"`

	// Charts are mounted at startup
	Charts []string `toml:"charts"`

	PlaceholderCount      int     `toml:"placeholder_count"`
	PlaceholderIntervalMs int64   `toml:"placeholder_interval_ms"`
	PlaceholderValue      float64 `toml:"placeholder_value"`

	// MaxPoints bounds each series; the oldest sample is evicted first
	MaxPoints int `toml:"max_points"`

	// QueueSize is the inbound message queue capacity
	QueueSize int `toml:"queue_size"`

	// HeartbeatSchedule is a cron spec for SSE keep-alives
	HeartbeatSchedule string `toml:"heartbeat_schedule"`

	// LogRotationSchedule is a cron spec for rotating the log file
	LogRotationSchedule string `toml:"log_rotation_schedule"`

	// Demo feeds every chart from a built-in random source
	Demo         bool   `toml:"demo"`
	DemoSchedule string `toml:"demo_schedule"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddr:            DefaultPort,
		DatabasePath:          "livechart.db",
		MessageType:           DefaultMessageType,
		Charts:                []string{DefaultChartID},
		PlaceholderCount:      20,
		PlaceholderIntervalMs: 3000,
		PlaceholderValue:      100,
		MaxPoints:             500,
		QueueSize:             256,
		HeartbeatSchedule:     "@every 15s",
		LogRotationSchedule:   "@daily",
		DemoSchedule:          "@every 3s",
	}
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := defaultConfig()

	configPath := DefaultConfigPath
	if p := os.Getenv("LIVECHART_CONFIG_PATH"); p != "" {
		configPath = p
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	addr, err := NormalizeListenAddr(config.ListenAddr)
	if err != nil {
		return nil, err
	}
	config.ListenAddr = addr

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv("LIVECHART_LISTEN_ADDR"); v != "" {
		config.ListenAddr = v
	}
	if v := os.Getenv("LIVECHART_DATABASE_PATH"); v != "" {
		config.DatabasePath = v
	}
	if v := os.Getenv("LIVECHART_LOG_DIR"); v != "" {
		config.LogDir = v
	}
	if v := os.Getenv("LIVECHART_MESSAGE_TYPE"); v != "" {
		config.MessageType = v
	}
	if v := os.Getenv("LIVECHART_CHARTS"); v != "" {
		config.Charts = splitList(v)
	}
	if v := os.Getenv("LIVECHART_HEARTBEAT"); v != "" {
		config.HeartbeatSchedule = v
	}
	if v := os.Getenv("LIVECHART_MAX_POINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIVECHART_MAX_POINTS %q: %w", v, err)
		}
		config.MaxPoints = n
	}
	if v := os.Getenv("LIVECHART_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LIVECHART_DEMO %q: %w", v, err)
		}
		config.Demo = b
	}
	if v := os.Getenv("LIVECHART_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIVECHART_QUEUE_SIZE %q: %w", v, err)
		}
		config.QueueSize = n
	}
	return nil
}

// Validate checks the settings that would otherwise break the chart invariants.
func (c *Config) Validate() error {
	var errs []error
	if c.MessageType == "" {
		errs = append(errs, errors.New("message_type must not be empty"))
	}
	if len(c.Charts) == 0 {
		errs = append(errs, errors.New("at least one chart must be configured"))
	}
	seen := make(map[string]bool, len(c.Charts))
	for _, id := range c.Charts {
		if id == "" {
			errs = append(errs, errors.New("chart id must not be empty"))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("chart %s configured twice", id))
		}
		seen[id] = true
	}
	if c.PlaceholderCount < 0 {
		errs = append(errs, fmt.Errorf("placeholder_count must not be negative, got %d", c.PlaceholderCount))
	}
	if c.PlaceholderIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("placeholder_interval_ms must be positive, got %d", c.PlaceholderIntervalMs))
	}
	if c.MaxPoints <= 0 {
		errs = append(errs, fmt.Errorf("max_points must be positive, got %d", c.MaxPoints))
	} else if c.MaxPoints < c.PlaceholderCount {
		errs = append(errs, fmt.Errorf("max_points (%d) must be at least placeholder_count (%d)", c.MaxPoints, c.PlaceholderCount))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue_size must be positive, got %d", c.QueueSize))
	}
	if c.Demo && c.DemoSchedule == "" {
		errs = append(errs, errors.New("demo_schedule must be set when demo is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("ListenAddr: %s", c.ListenAddr))
	parts = append(parts, fmt.Sprintf("DatabasePath: %s", c.DatabasePath))
	parts = append(parts, fmt.Sprintf("MessageType: %s", c.MessageType))
	parts = append(parts, fmt.Sprintf("Charts: %s", strings.Join(c.Charts, ",")))
	parts = append(parts, fmt.Sprintf("MaxPoints: %d", c.MaxPoints))
	parts = append(parts, fmt.Sprintf("Demo: %t", c.Demo))
	return strings.Join(parts, ", ")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
