package config

import (
	"strings"
	"time"

	"github.com/cabinetfs/cabinet/pkg/session"
)

// Default values for everything the file and environment leave unset. The
// out-of-the-box configuration is a single process with embedded stores:
// badger metadata and sessions under /var/lib/cabinet, filesystem content,
// and in-process workers on a persistent queue.
const (
	DefaultAddress         = ":5000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDataDir     = "/var/lib/cabinet"
	DefaultContentPath = "/tmp/cabinet-content"

	DefaultQueuePollInterval  = 100 * time.Millisecond
	DefaultQueueLeaseDuration = time.Minute
	DefaultQueueMaxAttempts   = 3

	DefaultWorkerConcurrency = 2
)

// ApplyDefaults fills in every missing value.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Metadata.Type == "" {
		cfg.Metadata.Type = "badger"
	}
	if cfg.Metadata.Type == "badger" && cfg.Metadata.Badger == nil {
		cfg.Metadata.Badger = map[string]any{"dir": DefaultDataDir + "/metadata"}
	}

	if cfg.Content.Type == "" {
		cfg.Content.Type = "filesystem"
	}
	if cfg.Content.Type == "filesystem" && cfg.Content.Filesystem == nil {
		cfg.Content.Filesystem = map[string]any{"path": DefaultContentPath}
	}

	if cfg.Sessions.TTL == 0 {
		cfg.Sessions.TTL = session.DefaultTTL
	}
	if cfg.Sessions.Type == "" {
		cfg.Sessions.Type = "badger"
	}
	if cfg.Sessions.Type == "badger" && cfg.Sessions.Badger == nil {
		cfg.Sessions.Badger = map[string]any{"dir": DefaultDataDir + "/sessions"}
	}

	if cfg.Queue.Type == "" {
		cfg.Queue.Type = "badger"
	}
	if cfg.Queue.Type == "badger" && cfg.Queue.Badger == nil {
		cfg.Queue.Badger = map[string]any{"dir": DefaultDataDir + "/queue"}
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = DefaultQueuePollInterval
	}
	if cfg.Queue.LeaseDuration == 0 {
		cfg.Queue.LeaseDuration = DefaultQueueLeaseDuration
	}
	if cfg.Queue.MaxAttempts == 0 {
		cfg.Queue.MaxAttempts = DefaultQueueMaxAttempts
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
}
