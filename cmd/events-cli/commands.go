package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/okian/eventtracker/internal/adapters/calendar"
	service "github.com/okian/eventtracker/internal/app"
	"github.com/okian/eventtracker/internal/domain/filter"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/sorting"
)

// env is what a command runs against.
type env struct {
	tracker *service.Tracker
	stdout  io.Writer
	stderr  io.Writer
}

type command struct {
	// needsData commands abort when the initial load fails; reset exists to
	// recover from exactly that.
	needsData bool
	run       func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"list":       {needsData: true, run: runList},
	"categories": {needsData: true, run: runCategories},
	"status":     {needsData: true, run: runStatus},
	"reset":      {needsData: false, run: runReset},
	"export":     {needsData: true, run: runExport},
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func runList(_ context.Context, e *env, args []string) error {
	fs := e.flags("list")
	search := fs.String("search", "", "case-insensitive text matched against name and category")
	status := fs.String("status", filter.AllSentinel, "registration status filter")
	category := fs.String("category", filter.AllSentinel, "category filter")
	sortBy := fs.String("sort", "", "soonest, latest, name or category (default from config)")
	asJSON := fs.Bool("json", false, "print the buckets as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	sel := e.tracker.Selection()
	sel.Criteria.SearchText = *search
	m, err := filter.ParseStatusMatch(*status)
	if err != nil {
		return err
	}
	sel.Criteria.Status = m
	sel.Criteria.Category = filter.ParseCategoryMatch(*category)
	if *sortBy != "" {
		sel.Sort = sorting.ParsePolicy(*sortBy)
	}

	buckets := e.tracker.View(sel)
	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(buckets)
	}

	w := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	writeSection(w, "Upcoming Events", buckets.Upcoming)
	_, _ = fmt.Fprintln(w)
	writeSection(w, "Past Events", buckets.Past)
	return w.Flush()
}

func writeSection(w io.Writer, title string, events []model.Event) {
	_, _ = fmt.Fprintf(w, "%s (%d)\n", title, len(events))
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "  no events")
		return
	}
	for _, ev := range events {
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Date, ev.Name, ev.Category, ev.Status)
	}
}

func runCategories(_ context.Context, e *env, _ []string) error {
	for _, c := range e.tracker.Categories() {
		_, _ = fmt.Fprintln(e.stdout, c)
	}
	return nil
}

func runStatus(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		_, _ = fmt.Fprintln(e.stderr, "usage: events-cli status <id> <None|Registered|Waiting|Confirmed>")
		return errUsage
	}
	updated, err := e.tracker.SetStatus(ctx, model.ID(args[0]), model.Status(args[1]))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.stdout, "%s %s: %s\n", updated.ID, updated.Name, updated.Status)
	return nil
}

func runReset(ctx context.Context, e *env, _ []string) error {
	events, err := e.tracker.Reset(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.stdout, "reloaded %d events\n", len(events))
	return nil
}

func runExport(_ context.Context, e *env, args []string) error {
	fs := e.flags("export")
	status := fs.String("status", filter.AllSentinel, "only export events with this status")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	m, err := filter.ParseStatusMatch(*status)
	if err != nil {
		return err
	}

	ics := calendar.Export(filter.ByStatus(e.tracker.Events(), m))
	if *out == "" {
		_, err = io.WriteString(e.stdout, ics)
		return err
	}
	return os.WriteFile(*out, []byte(ics), 0o600)
}
