package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/eventtracker/internal/adapters/http/api"
	"github.com/okian/eventtracker/internal/adapters/http/site"
	"github.com/okian/eventtracker/internal/adapters/http/swagger"
	"github.com/okian/eventtracker/internal/adapters/repository"
	"github.com/okian/eventtracker/internal/adapters/seed"
	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/config"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/okian/eventtracker/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	ephemeral := flag.Bool("ephemeral", false, "keep events in memory only (overrides TRACKER_EPHEMERAL)")
	flag.Parse()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *ephemeral {
		cfg.Ephemeral = true
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, tracker, err := newTracker(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close storage", logger.Error(err))
		}
	}()

	// A failed initial load leaves the tracker empty but serving; POST /reset
	// retries the seed.
	if err := tracker.Start(ctx); err != nil {
		log.Error(ctx, "initial load failed", logger.Error(err))
	}
	defer tracker.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, tracker, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newTracker opens the configured store and seed source and builds an
// unstarted tracker over them. The caller owns the returned store.
func newTracker(cfg *config.Config, log logger.Logger) (*repository.Store, *service.Tracker, error) {
	kv, err := openKV(cfg)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewStore(kv,
		repository.WithNamespace(cfg.Namespace),
		repository.WithQuota(cfg.StorageQuotaBytes),
		repository.WithLogger(log.Named("repository")),
	)

	source, err := seed.NewSource(cfg.SeedLocation(), seed.WithTimeout(cfg.SeedTimeout()))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	tracker := service.New(store, source,
		service.WithLogger(log.Named("tracker")),
		service.WithQueueSize(cfg.PersistQueueSize),
		service.WithDefaultSort(cfg.Sort()),
	)
	return store, tracker, nil
}

func openKV(cfg *config.Config) (repository.KV, error) {
	if cfg.Ephemeral {
		return repository.NewMemoryKV(), nil
	}
	return repository.OpenBolt(cfg.StoragePath)
}

// newHandler builds the routed handler: API docs, the seed document, and the
// business API, all behind request id assignment.
func newHandler(ctx context.Context, cfg *config.Config, tracker *service.Tracker, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux, site.NewSeedHandler(cfg.SeedFile, log.Named("site")))
	api.NewServer(tracker, tracker, api.WithLogger(log.Named("api"))).Register(mux)
	return api.RequestID(mux)
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
