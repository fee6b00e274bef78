package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/trend"
)

// Config represents the complete application configuration
type Config struct {
	Fixture  FixtureConfig  `mapstructure:"fixture"`
	Render   RenderConfig   `mapstructure:"render"`
	Synth    SynthConfig    `mapstructure:"synth"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FixtureConfig holds the input fixture locations. Paths may be local files or
// http(s) URLs.
type FixtureConfig struct {
	Path       string        `mapstructure:"path"`
	SalesPath  string        `mapstructure:"sales_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RenderConfig holds chart rendering configuration
type RenderConfig struct {
	Granularity string `mapstructure:"granularity"`
	TopEvents   int    `mapstructure:"top_events"`
}

// SynthConfig holds daily synthesis configuration
type SynthConfig struct {
	Truncation string `mapstructure:"truncation"`
}

// OutputConfig holds rendered file output configuration
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Colors bool   `mapstructure:"colors"`
}

// StorageConfig holds render cache configuration
type StorageConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DBPath     string `mapstructure:"db_path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ServerConfig holds preview server configuration
type ServerConfig struct {
	Addr     string        `mapstructure:"addr"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. With an empty
// path only defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// TRENDLINE_FIXTURE_PATH overrides fixture.path, and so on.
	v.SetEnvPrefix("TRENDLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Fixture defaults
	v.SetDefault("fixture.path", "./fixtures/events.json")
	v.SetDefault("fixture.sales_path", "")
	v.SetDefault("fixture.timeout", "30s")
	v.SetDefault("fixture.max_retries", 3)

	// Render defaults
	v.SetDefault("render.granularity", "weekly")
	v.SetDefault("render.top_events", 5)
	v.SetDefault("synth.truncation", "drop")

	// Output defaults
	v.SetDefault("output.dir", "./out")
	v.SetDefault("output.colors", true)

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "./data/renders.db")
	v.SetDefault("storage.max_entries", 50)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Server defaults
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.watch", true)
	v.SetDefault("server.debounce", "500ms")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Fixture config
	if c.Fixture.Path == "" {
		return fmt.Errorf("fixture.path is required")
	}
	if c.Fixture.Timeout < time.Second {
		return fmt.Errorf("fixture.timeout must be at least 1 second")
	}
	if c.Fixture.MaxRetries < 1 {
		return fmt.Errorf("fixture.max_retries must be at least 1")
	}

	// Validate Render config
	if _, err := period.ParseGranularity(c.Render.Granularity); err != nil {
		return fmt.Errorf("render.granularity must be one of: daily, weekly, monthly")
	}
	if c.Render.TopEvents < 1 {
		return fmt.Errorf("render.top_events must be at least 1")
	}
	if _, err := trend.ParseTruncationPolicy(c.Synth.Truncation); err != nil {
		return fmt.Errorf("synth.truncation must be one of: drop, rescale")
	}

	// Validate Output config
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxEntries < 1 {
			return fmt.Errorf("storage.max_entries must be at least 1")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 {
			return fmt.Errorf("telegram.max_retries must be at least 1")
		}
	}

	// Validate Server config
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.Debounce < 10*time.Millisecond {
		return fmt.Errorf("server.debounce must be at least 10ms")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Granularity returns the parsed default granularity. Call after Validate.
func (c *Config) Granularity() period.Granularity {
	g, _ := period.ParseGranularity(c.Render.Granularity)
	return g
}

// Truncation returns the parsed truncation policy. Call after Validate.
func (c *Config) Truncation() trend.TruncationPolicy {
	p, _ := trend.ParseTruncationPolicy(c.Synth.Truncation)
	return p
}
