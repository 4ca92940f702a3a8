// Package config loads and validates the Cabinet configuration, and builds
// the concrete store, cache, and queue implementations from it.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (CABINET_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// Each backend defines its own configuration type. The Config struct carries
// backend-specific sections as raw maps (e.g. metadata.badger) and only the
// section matching the selected type is decoded, inside the factory for that
// backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete Cabinet configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`

	// Metadata selects and configures the document store.
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Content selects and configures the content store.
	Content ContentConfig `mapstructure:"content"`

	// Sessions configures the token cache and TTL.
	Sessions SessionsConfig `mapstructure:"sessions"`

	// Queue configures the background job queue.
	Queue QueueConfig `mapstructure:"queue"`

	// Worker configures the in-process job consumers.
	Worker WorkerConfig `mapstructure:"worker"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address, e.g. ":5000".
	Address string `mapstructure:"address" validate:"required"`

	// ReadTimeout bounds reading a request, WriteTimeout writing the
	// response.
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`

	// ShutdownTimeout is the maximum wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// MetadataConfig selects the document store backend.
type MetadataConfig struct {
	// Type is "memory" or "badger".
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger is backend-specific configuration, used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// ContentConfig selects the content store backend.
type ContentConfig struct {
	// Type is "filesystem", "memory", or "s3".
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem is used when Type = "filesystem".
	Filesystem map[string]any `mapstructure:"filesystem"`

	// S3 is used when Type = "s3".
	S3 map[string]any `mapstructure:"s3"`
}

// SessionsConfig configures the token cache.
type SessionsConfig struct {
	// TTL is the fixed session lifetime.
	TTL time.Duration `mapstructure:"ttl" validate:"required,gt=0"`

	// Type is "memory" or "badger".
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger is used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`
}

// QueueConfig configures the job queue.
type QueueConfig struct {
	// Type is "memory" or "badger".
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Badger is used when Type = "badger".
	Badger map[string]any `mapstructure:"badger"`

	// PollInterval is how often a blocked consumer re-checks for work.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required,gt=0"`

	// LeaseDuration is the redelivery window for abandoned jobs.
	LeaseDuration time.Duration `mapstructure:"lease_duration" validate:"required,gt=0"`

	// MaxAttempts caps deliveries per job.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gte=1"`
}

// WorkerConfig configures the in-process consumers.
type WorkerConfig struct {
	// Enabled runs the consumers inside the API server process. Disable it
	// when the standalone worker binary owns the queue instead.
	Enabled bool `mapstructure:"enabled"`

	// Concurrency is the number of consumer goroutines per topic.
	Concurrency int `mapstructure:"concurrency" validate:"required,gte=1"`
}

// Load loads configuration from file, environment, and defaults.
//
// An empty configPath skips the file and uses environment plus defaults;
// a named file that does not exist is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and the config file.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the CABINET_ prefix and underscores.
	// Example: CABINET_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("CABINET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans cannot distinguish unset from false after unmarshal, so the
	// one true-by-default flag gets its default here.
	v.SetDefault("worker.enabled", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
}

// Dump renders the effective configuration as YAML, for -print-config.
func Dump(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}
