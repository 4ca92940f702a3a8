package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a fully defaulted configuration that passes
// validation.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Expected the defaulted config to validate, got: %v", err)
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation to reject an unknown log level")
	}
}

func TestValidate_StoreTypes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown_metadata_type", mutate: func(c *Config) { c.Metadata.Type = "postgres" }},
		{name: "unknown_content_type", mutate: func(c *Config) { c.Content.Type = "ftp" }},
		{name: "unknown_sessions_type", mutate: func(c *Config) { c.Sessions.Type = "redis" }},
		{name: "unknown_queue_type", mutate: func(c *Config) { c.Queue.Type = "kafka" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}

func TestValidate_MissingBackendSection(t *testing.T) {
	cfg := validConfig()
	cfg.Metadata.Badger = nil

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation to fail without a badger section")
	}
	if !strings.Contains(err.Error(), "badger section is missing") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_S3NeedsSection(t *testing.T) {
	cfg := validConfig()
	cfg.Content.Type = "s3"
	cfg.Content.S3 = nil

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation to fail for s3 without a section")
	}
}

func TestValidate_LeaseMustOutlastPoll(t *testing.T) {
	cfg := validConfig()
	cfg.Queue.PollInterval = time.Minute
	cfg.Queue.LeaseDuration = time.Second

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation to fail when the lease is shorter than the poll interval")
	}
	if !strings.Contains(err.Error(), "lease_duration") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_NegativeTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ReadTimeout = -time.Second

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation to reject a negative read timeout")
	}
}
