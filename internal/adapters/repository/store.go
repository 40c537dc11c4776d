// Package repository implements the durable event store.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/errkind"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/okian/eventtracker/pkg/metrics"
)

// TimestampLayout matches JavaScript's Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Store keeps the whole event collection in a persisted envelope under one
// namespace key. Save and Load never return errors: failures are logged and
// reported through the return value, with memory remaining authoritative.
type Store struct {
	kv        KV
	namespace string
	quota     int
	now       func() time.Time
	logger    logger.Logger
}

// NewStore wraps kv.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		namespace: DefaultNamespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Namespace returns the key the envelope is stored under.
func (s *Store) Namespace() string { return s.namespace }

// Save writes events with a fresh lastUpdated timestamp. It reports false on
// any failure, including quota exhaustion; no retry is attempted.
func (s *Store) Save(ctx context.Context, events []model.Event) bool {
	if err := s.save(ctx, events); err != nil {
		s.logger.Error(ctx, "failed to save events",
			logger.String("namespace", s.namespace),
			logger.Bool("quota_exceeded", errors.Is(err, ErrQuotaExceeded)),
			logger.Error(err),
		)
		metrics.RecordStorageSave(metrics.OutcomeFailed)
		return false
	}
	metrics.RecordStorageSave(metrics.OutcomeOK)
	return true
}

func (s *Store) save(ctx context.Context, events []model.Event) error {
	const op = "repository.save"
	if events == nil {
		events = []model.Event{}
	}
	env := model.Envelope{
		Events:      events,
		LastUpdated: s.now().UTC().Format(TimestampLayout),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errkind.WrapKind(op, ErrStorage, err)
	}
	if s.quota > 0 && len(data) > s.quota {
		return errkind.WrapKind(op, ErrQuotaExceeded, fmt.Errorf("%d bytes > quota %d", len(data), s.quota))
	}
	if err := s.kv.Put(ctx, s.namespace, data); err != nil {
		return errkind.WrapKind(op, ErrStorage, err)
	}
	metrics.UpdateStoragePayloadSize(len(data))
	s.logger.Debug(ctx, "saved events",
		logger.String("namespace", s.namespace),
		logger.Int("count", len(events)),
		logger.Int("bytes", len(data)),
	)
	return nil
}

// Load returns the stored collection. A missing key yields (nil, false). A
// corrupt envelope (unparsable, no array-typed events, or an element that is
// not a complete, well-typed event) is cleared and also yields (nil, false).
func (s *Store) Load(ctx context.Context) ([]model.Event, bool) {
	env, err := s.read(ctx)
	switch {
	case err == nil:
		metrics.RecordStorageLoad(metrics.OutcomeHit)
		return env.Events, true
	case errors.Is(err, ErrNotFound):
		metrics.RecordStorageLoad(metrics.OutcomeMiss)
		return nil, false
	default:
		s.logger.Warn(ctx, "invalid data in storage, clearing",
			logger.String("namespace", s.namespace),
			logger.Error(err),
		)
		metrics.RecordStorageLoad(metrics.OutcomeCorrupt)
		s.Clear(ctx)
		return nil, false
	}
}

// LastUpdated returns the timestamp of the stored envelope, if any. It does
// not self-heal; Load does.
func (s *Store) LastUpdated(ctx context.Context) (string, bool) {
	env, err := s.read(ctx)
	if err != nil {
		return "", false
	}
	return env.LastUpdated, true
}

func (s *Store) read(ctx context.Context) (model.Envelope, error) {
	const op = "repository.load"
	data, err := s.kv.Get(ctx, s.namespace)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Envelope{}, err
		}
		return model.Envelope{}, errkind.WrapKind(op, ErrStorage, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Envelope{}, ErrNotFound
	}

	var raw struct {
		Events      json.RawMessage `json:"events"`
		LastUpdated string          `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Envelope{}, errkind.WrapKind(op, ErrCorrupt, err)
	}
	if !isJSONArray(raw.Events) {
		return model.Envelope{}, errkind.WrapKind(op, ErrCorrupt, errors.New("events is not an array"))
	}

	events, err := decodeEvents(raw.Events)
	if err != nil {
		return model.Envelope{}, errkind.WrapKind(op, ErrCorrupt, err)
	}
	return model.Envelope{Events: events, LastUpdated: raw.LastUpdated}, nil
}

// decodeEvents requires every element to be an object carrying each of
// model.RequiredFields with a value of the right type.
func decodeEvents(data json.RawMessage) ([]model.Event, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(elems))
	for i, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("event %d is not an object", i)
		}
		for _, name := range model.RequiredFields {
			if v, ok := fields[name]; !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return nil, fmt.Errorf("event %d: missing %s", i, name)
			}
		}
		var e model.Event
		if err := json.Unmarshal(elem, &e); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if !e.Status.Valid() {
			return nil, fmt.Errorf("event %d: invalid status %q", i, e.Status)
		}
		events = append(events, e)
	}
	return events, nil
}

// Clear removes the namespace key. Failures are logged only.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.namespace); err != nil {
		s.logger.Error(ctx, "failed to clear storage",
			logger.String("namespace", s.namespace),
			logger.Error(err),
		)
		metrics.RecordStorageClear(metrics.OutcomeFailed)
		return
	}
	metrics.RecordStorageClear(metrics.OutcomeOK)
}

// Close releases the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
