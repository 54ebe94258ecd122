// Package config loads schemaforge settings from an optional YAML file and
// SCHEMAFORGE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// SCHEMAFORGE_BROKER_WORKERS=16.
const EnvPrefix = "SCHEMAFORGE"

// Config is the complete runtime configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Schema SchemaConfig `mapstructure:"schema"`
	Broker BrokerConfig `mapstructure:"broker"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// SchemaConfig holds schema build options.
type SchemaConfig struct {
	ExcludeDeprecated bool `mapstructure:"exclude_deprecated"`
}

// BrokerConfig sizes the subscription broker.
type BrokerConfig struct {
	Workers int `mapstructure:"workers"`
	Buffer  int `mapstructure:"buffer"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "json"},
		Broker: BrokerConfig{Workers: 8, Buffer: 16},
	}
}

// Load reads path (when non-empty) and applies environment overrides on top
// of Defaults. Without a path, ./schemaforge.yaml is read if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("schema.exclude_deprecated", d.Schema.ExcludeDeprecated)
	v.SetDefault("broker.workers", d.Broker.Workers)
	v.SetDefault("broker.buffer", d.Broker.Buffer)

	// log.level -> SCHEMAFORGE_LOG_LEVEL
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("schemaforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the broker or logger cannot honour.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: must be json or console, got %q", c.Log.Format)
	}
	if c.Broker.Workers < 1 {
		return fmt.Errorf("broker.workers: must be at least 1, got %d", c.Broker.Workers)
	}
	if c.Broker.Buffer < 0 {
		return fmt.Errorf("broker.buffer: must not be negative, got %d", c.Broker.Buffer)
	}
	return nil
}

// NewLogger builds the logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
