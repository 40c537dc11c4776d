package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/config"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const seedDoc = `[
  {"id":1,"name":"AWS Community Day","date":"2025-01-01","category":"Cloud Computing","type":"Conference",
   "location":"Bengaluru","description":"Cloud talks","registrationLink":"https://example.com/aws","status":"None"},
  {"id":2,"name":"GopherCon India","date":"2099-01-01","category":"Programming","type":"Conference",
   "location":"Bengaluru","description":"Go talks","registrationLink":"https://example.com/go","status":"Registered"}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New()
	cfg.StoragePath = filepath.Join(dir, "data", "tracker.db")
	cfg.SeedFile = filepath.Join(dir, "test data.json")
	if err := os.WriteFile(cfg.SeedFile, []byte(seedDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		_ = os.Setenv("TRACKER_ADDR", ":9090")
		_ = os.Setenv("TRACKER_PERSIST_QUEUE_SIZE", "8")
		defer func() {
			_ = os.Unsetenv("TRACKER_ADDR")
			_ = os.Unsetenv("TRACKER_PERSIST_QUEUE_SIZE")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.PersistQueueSize, convey.ShouldEqual, 8)
		})
	})

	convey.Convey("Given an invalid override", t, func() {
		_ = os.Setenv("TRACKER_PERSIST_QUEUE_SIZE", "0")
		defer func() { _ = os.Unsetenv("TRACKER_PERSIST_QUEUE_SIZE") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a tracker built from configuration", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		log := logger.Nop()

		store, tracker, err := newTracker(cfg, log)
		convey.So(err, convey.ShouldBeNil)
		convey.So(tracker.Start(ctx), convey.ShouldBeNil)
		closed := false
		shutdown := func() {
			if closed {
				return
			}
			closed = true
			tracker.Stop()
			_ = store.Close()
		}
		handler := newHandler(ctx, cfg, tracker, log)

		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			return w
		}

		convey.Convey("When requesting every mounted surface", func() {
			convey.Convey("Then the API, seed document and docs all answer", func() {
				for _, target := range []string{"/events", "/stats", "/healthz", "/test-data.json", "/openapi.yaml", "/api-docs"} {
					convey.So(get(target).Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then responses carry a request id", func() {
				convey.So(get("/events").Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When a status change is stopped and the process restarts", func() {
			_, err := tracker.SetStatus(ctx, "1", "Confirmed")
			convey.So(err, convey.ShouldBeNil)
			shutdown()

			store2, tracker2, err := newTracker(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store2.Close() }()
			convey.So(tracker2.Start(ctx), convey.ShouldBeNil)
			defer tracker2.Stop()

			convey.Convey("Then the edit is loaded from storage", func() {
				e, ok := tracker2.Event("1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(string(e.Status), convey.ShouldEqual, "Confirmed")
				convey.So(tracker2.GetStats(ctx).Origin, convey.ShouldEqual, service.OriginStorage)
			})
		})

		convey.Reset(shutdown)
	})

	convey.Convey("Given ephemeral storage", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Ephemeral = true

		convey.Convey("Then edits do not survive a restart", func() {
			store, tracker, err := newTracker(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(tracker.Start(ctx), convey.ShouldBeNil)
			_, err = tracker.SetStatus(ctx, "1", "Confirmed")
			convey.So(err, convey.ShouldBeNil)
			tracker.Stop()
			convey.So(store.Close(), convey.ShouldBeNil)

			_, err = os.Stat(cfg.StoragePath)
			convey.So(os.IsNotExist(err), convey.ShouldBeTrue)

			store2, tracker2, err := newTracker(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store2.Close() }()
			convey.So(tracker2.Start(ctx), convey.ShouldBeNil)
			defer tracker2.Stop()
			e, _ := tracker2.Event("1")
			convey.So(string(e.Status), convey.ShouldEqual, "None")
			convey.So(tracker2.GetStats(ctx).Origin, convey.ShouldEqual, service.OriginSeed)
		})
	})

	convey.Convey("Given an unsupported seed scheme", t, func() {
		cfg := testConfig(t)
		cfg.SeedURL = "ftp://example.com/events.json"

		convey.Convey("Then building the tracker fails and storage is released", func() {
			_, _, err := newTracker(cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			store, tracker, err := newTracker(testConfigAt(cfg), logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(tracker, convey.ShouldNotBeNil)
			convey.So(store.Close(), convey.ShouldBeNil)
		})
	})
}

// testConfigAt clears the seed URL so cfg falls back to its seed file.
func testConfigAt(cfg *config.Config) *config.Config {
	out := *cfg
	out.SeedURL = ""
	return &out
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given a short-lived context", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then the updater returns once it is done", func() {
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
