// Package config defines process configuration and its loading.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/okian/eventtracker/internal/domain/sorting"
	"github.com/okian/eventtracker/pkg/errkind"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// StoragePath is the bbolt file holding the persisted envelope.
	StoragePath string `koanf:"storage_path"`

	// Ephemeral keeps the envelope in process memory instead of StoragePath.
	Ephemeral bool `koanf:"ephemeral"`

	// Namespace is the storage key of the envelope.
	Namespace string `koanf:"namespace"`

	// SeedURL, when set, is fetched over HTTP instead of reading SeedFile.
	SeedURL string `koanf:"seed_url"`

	// SeedFile is the local seed document, also served at /test-data.json.
	SeedFile string `koanf:"seed_file"`

	SeedTimeoutMS int `koanf:"seed_timeout_ms"`

	// StorageQuotaBytes rejects larger envelopes. Zero disables the check.
	StorageQuotaBytes int `koanf:"storage_quota_bytes"`

	// PersistQueueSize bounds pending persistence snapshots.
	PersistQueueSize int `koanf:"persist_queue_size"`

	// DefaultSort is the initial sort policy: soonest, latest, name, category.
	DefaultSort string `koanf:"default_sort"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8000",
		StoragePath:       "data/tracker.db",
		Namespace:         "bengaluru-tech-events",
		SeedFile:          "test data.json",
		SeedTimeoutMS:     10_000,
		StorageQuotaBytes: 5 << 20,
		PersistQueueSize:  64,
		DefaultSort:       "soonest",
	}
}

// SeedLocation is SeedURL when set, SeedFile otherwise.
func (c *Config) SeedLocation() string {
	if strings.TrimSpace(c.SeedURL) != "" {
		return c.SeedURL
	}
	return c.SeedFile
}

// SeedTimeout returns SeedTimeoutMS as a duration.
func (c *Config) SeedTimeout() time.Duration {
	return time.Duration(c.SeedTimeoutMS) * time.Millisecond
}

// Sort returns the parsed default sort policy.
func (c *Config) Sort() sorting.Policy {
	return sorting.ParsePolicy(c.DefaultSort)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	const op = "config.validate"
	var level slog.Level
	switch {
	case level.UnmarshalText([]byte(c.LogLevel)) != nil:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("unknown log_level %q", c.LogLevel))
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	case strings.TrimSpace(c.Addr) == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("addr must not be empty"))
	case !c.Ephemeral && strings.TrimSpace(c.StoragePath) == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("storage_path must not be empty"))
	case strings.TrimSpace(c.Namespace) == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("namespace must not be empty"))
	case strings.TrimSpace(c.SeedLocation()) == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("one of seed_url or seed_file is required"))
	case c.SeedTimeoutMS <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("seed_timeout_ms must be positive"))
	case c.StorageQuotaBytes < 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("storage_quota_bytes must not be negative"))
	case c.PersistQueueSize <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("persist_queue_size must be positive"))
	case c.Sort() == sorting.Unknown:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("unknown default_sort %q", c.DefaultSort))
	}
	return nil
}
