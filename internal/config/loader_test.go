package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/eventtracker/internal/config"
	"github.com/okian/eventtracker/internal/domain/sorting"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.Namespace, convey.ShouldEqual, "bengaluru-tech-events")
			convey.So(cfg.SeedLocation(), convey.ShouldEqual, "test data.json")
			convey.So(cfg.SeedTimeout().Seconds(), convey.ShouldEqual, 10)
			convey.So(cfg.Sort(), convey.ShouldEqual, sorting.Soonest)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then a seed URL takes precedence over the seed file", func() {
			cfg.SeedURL = "http://localhost:8000/test-data.json"
			convey.So(cfg.SeedLocation(), convey.ShouldEqual, "http://localhost:8000/test-data.json")
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRACKER_ADDR", ":8080")
			_ = os.Setenv("TRACKER_SEED_URL", "https://example.com/test-data.json")
			_ = os.Setenv("TRACKER_SEED_TIMEOUT_MS", "2500")
			_ = os.Setenv("TRACKER_PERSIST_QUEUE_SIZE", "16")
			_ = os.Setenv("TRACKER_DEFAULT_SORT", "category")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SeedLocation(), convey.ShouldEqual, "https://example.com/test-data.json")
				convey.So(cfg.SeedTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.Sort(), convey.ShouldEqual, sorting.Category)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
storage_path: "/var/lib/tracker/events.db"
namespace: "pune-tech-events"
log_format: json
`)
			_ = os.Setenv("TRACKER_CONFIG", path)
			_ = os.Setenv("TRACKER_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")                             // env
				convey.So(cfg.StoragePath, convey.ShouldEqual, "/var/lib/tracker/events.db") // file
				convey.So(cfg.Namespace, convey.ShouldEqual, "pune-tech-events")             // file
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")                         // file
				convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 64)                      // default
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("TRACKER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the config file is invalid YAML", func() {
			_ = os.Setenv("TRACKER_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("TRACKER_PERSIST_QUEUE_SIZE", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(cfg, convey.ShouldBeNil)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestEphemeral(t *testing.T) {
	convey.Convey("Given ephemeral storage without a storage path", t, func() {
		clearConfigEnvVars()
		_ = os.Setenv("TRACKER_EPHEMERAL", "true")
		_ = os.Setenv("TRACKER_STORAGE_PATH", "")
		defer clearConfigEnvVars()

		convey.Convey("Then the path is not required", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Ephemeral, convey.ShouldBeTrue)
			convey.So(cfg.StoragePath, convey.ShouldBeEmpty)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	invalid := map[string]string{
		"TRACKER_ADDR":                "",
		"TRACKER_LOG_LEVEL":           "chatty",
		"TRACKER_LOG_FORMAT":          "xml",
		"TRACKER_STORAGE_PATH":        " ",
		"TRACKER_SEED_FILE":           "",
		"TRACKER_SEED_TIMEOUT_MS":     "0",
		"TRACKER_STORAGE_QUOTA_BYTES": "-1",
		"TRACKER_PERSIST_QUEUE_SIZE":  "0",
		"TRACKER_DEFAULT_SORT":        "popularity",
	}

	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()
		for key, value := range invalid {
			convey.Convey("When "+key+"="+value, func() {
				clearConfigEnvVars()
				_ = os.Setenv(key, value)
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.Convey("Then it should return a validation error", func() {
					convey.So(cfg, convey.ShouldBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}
