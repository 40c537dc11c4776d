// Command events-cli renders and edits the tracked events offline, over the
// same storage and seed configuration as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/eventtracker/internal/adapters/repository"
	"github.com/okian/eventtracker/internal/adapters/seed"
	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/config"
	"github.com/okian/eventtracker/pkg/logger"
)

// errUsage reports bad arguments; the usage text has already been printed.
var errUsage = errors.New("usage")

const usage = `Bengaluru Tech Events CLI

Usage:
  events-cli [-v] <command> [options]

Commands:
  list        render upcoming and past events
                -search text  -status All|None|Registered|Waiting|Confirmed
                -category name  -sort soonest|latest|name|category  -json
  categories  list distinct categories
  status      set a registration status: status <id> <value>
  reset       discard local edits and reload the seed
  export      write an iCalendar feed: export [-status value] [-o file]

Configuration is read from TRACKER_CONFIG and TRACKER_* variables.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	err = run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		os.Stderr.WriteString("events-cli: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// run parses global flags, opens the tracker and dispatches to a command.
func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("events-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usage) }
	verbose := fs.Bool("v", false, "log at the configured level instead of errors only")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	if err := logger.Init(logger.WithOutput(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	level := "error"
	if *verbose {
		level = cfg.LogLevel
	}
	_ = logger.SetLevelString(level)

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}

	kv, err := repository.OpenBolt(cfg.StoragePath)
	if err != nil {
		return err
	}
	store := repository.NewStore(kv,
		repository.WithNamespace(cfg.Namespace),
		repository.WithQuota(cfg.StorageQuotaBytes),
		repository.WithLogger(logger.Named("repository")),
	)
	defer func() { _ = store.Close() }()

	source, err := seed.NewSource(cfg.SeedLocation(), seed.WithTimeout(cfg.SeedTimeout()))
	if err != nil {
		return err
	}
	tracker := service.New(store, source,
		service.WithLogger(logger.Named("tracker")),
		service.WithQueueSize(cfg.PersistQueueSize),
		service.WithDefaultSort(cfg.Sort()),
	)

	// Stop drains the persister, so edits are durable on return.
	defer tracker.Stop()
	if err := tracker.Start(ctx); err != nil && cmd.needsData {
		return err
	}

	return cmd.run(ctx, &env{tracker: tracker, stdout: stdout, stderr: stderr}, fs.Args()[1:])
}
