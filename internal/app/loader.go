// Package service wires the event pipeline, persistence and seed loading
// behind the Tracker used by the HTTP API and the CLI.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/eventtracker/internal/adapters/seed"
	"github.com/okian/eventtracker/internal/domain/dedupe"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/errkind"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/okian/eventtracker/pkg/metrics"
)

// Load origins reported in logs and metrics.
const (
	OriginStorage = "storage"
	OriginSeed    = "seed"
)

// Store is the persistence the service needs.
type Store interface {
	Load(ctx context.Context) ([]model.Event, bool)
	Save(ctx context.Context, events []model.Event) bool
	Clear(ctx context.Context)
	LastUpdated(ctx context.Context) (string, bool)
}

// Loader decides where the initial collection comes from.
type Loader struct {
	store    Store
	source   seed.Source
	validate *validator.Validate
	logger   logger.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets a custom logger for the loader.
func WithLoaderLogger(l logger.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader reading from store first and source second.
func NewLoader(store Store, source seed.Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:    store,
		source:   source,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadInitialData returns the stored collection when it is non-empty.
// Otherwise it fetches and validates the seed, saves it best-effort and
// returns it. Errors match both ErrLoad and the cause kind (seed.ErrFetch or
// ErrValidation).
func (l *Loader) LoadInitialData(ctx context.Context) ([]model.Event, error) {
	events, _, err := l.load(ctx)
	return events, err
}

func (l *Loader) load(ctx context.Context) ([]model.Event, string, error) {
	const op = "service.load"

	if stored, ok := l.store.Load(ctx); ok && len(stored) > 0 {
		l.logger.Info(ctx, "loaded events from storage", logger.Int("count", len(stored)))
		metrics.RecordInitialLoad(OriginStorage)
		return stored, OriginStorage, nil
	}

	if l.source == nil {
		return nil, "", errkind.WrapKind(op, ErrLoad, errkind.NewKind(op, seed.ErrFetch))
	}
	data, err := l.source.Fetch(ctx)
	if err != nil {
		l.logger.Error(ctx, "failed to fetch seed data", logger.Error(err))
		return nil, "", errkind.WrapKind(op, ErrLoad, err)
	}

	events, err := l.Validate(data)
	if err != nil {
		metrics.RecordValidationFailure()
		l.logger.Error(ctx, "seed data rejected", logger.Error(err))
		return nil, "", errkind.WrapKind(op, ErrLoad, err)
	}

	if !l.store.Save(ctx, events) {
		l.logger.Warn(ctx, "seed loaded but could not be saved", logger.Int("count", len(events)))
	}
	l.logger.Info(ctx, "loaded events from seed", logger.Int("count", len(events)))
	metrics.RecordInitialLoad(OriginSeed)
	return events, OriginSeed, nil
}

// Validate parses a seed document. It must be a JSON array whose elements all
// carry every required field, decode to well-typed events with ISO dates and
// have distinct ids. Any failure rejects the whole document.
func (l *Loader) Validate(data []byte) ([]model.Event, error) {
	const op = "service.validate"

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errkind.WrapKind(op, ErrValidation, errors.New("data is not an array"))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, errkind.WrapKind(op, ErrValidation, err)
	}

	events := make([]model.Event, 0, len(elems))
	for i, raw := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, errkind.WrapKind(op, ErrValidation, fmt.Errorf("event %d is not an object", i))
		}
		if missing := missingFields(fields); len(missing) > 0 {
			return nil, errkind.WrapKind(op, ErrValidation,
				fmt.Errorf("event %d is missing required fields: %s", i, strings.Join(missing, ", ")))
		}

		var e model.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errkind.WrapKind(op, ErrValidation, fmt.Errorf("event %d: %w", i, err))
		}
		if err := l.validate.Struct(e); err != nil {
			return nil, errkind.WrapKind(op, ErrValidation, fmt.Errorf("event %d: %w", i, err))
		}
		events = append(events, e)
	}

	if id, dup := dedupe.FirstDuplicate(context.Background(), events); dup {
		return nil, errkind.WrapKind(op, ErrValidation, fmt.Errorf("duplicate event id %q", id))
	}
	return events, nil
}

func missingFields(fields map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range model.RequiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Reset clears storage and loads again, which always refetches the seed.
func (l *Loader) Reset(ctx context.Context) ([]model.Event, error) {
	l.store.Clear(ctx)
	l.logger.Info(ctx, "storage cleared, reloading seed")
	return l.LoadInitialData(ctx)
}
