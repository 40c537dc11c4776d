package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/eventtracker/internal/adapters/mq/queue"
	"github.com/okian/eventtracker/internal/adapters/mq/worker"
	"github.com/okian/eventtracker/internal/adapters/seed"
	"github.com/okian/eventtracker/internal/domain/filter"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/internal/domain/schedule"
	"github.com/okian/eventtracker/internal/domain/sorting"
	"github.com/okian/eventtracker/internal/domain/types"
	"github.com/okian/eventtracker/pkg/errkind"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/okian/eventtracker/pkg/metrics"
)

const (
	defaultQueueSize = 64
	stopTimeout      = 5 * time.Second
)

// Selection is what the user currently has chosen in the controls.
type Selection struct {
	Criteria filter.Criteria
	Sort     sorting.Policy
}

// DefaultSelection shows everything, soonest first.
func DefaultSelection() Selection {
	return Selection{Criteria: filter.None(), Sort: sorting.Soonest}
}

// Stats is a snapshot of tracker state for monitoring.
type Stats struct {
	Started     bool                 `json:"started"`
	Origin      string               `json:"origin,omitempty"`
	Total       int                  `json:"total"`
	Upcoming    int                  `json:"upcoming"`
	Past        int                  `json:"past"`
	ByStatus    map[model.Status]int `json:"byStatus"`
	Categories  int                  `json:"categories"`
	LastUpdated string               `json:"lastUpdated,omitempty"`
	LoadError   string               `json:"loadError,omitempty"`
	Persist     worker.Stats         `json:"persist"`
}

// Tracker owns the canonical event collection. Reads come from any
// goroutine; every mutation replaces the collection wholesale and schedules
// a snapshot for the persister.
type Tracker struct {
	mu sync.RWMutex

	events    []model.Event
	selection Selection
	origin    string
	loadErr   error

	store       Store
	loader      *Loader
	queue       *queue.InMemoryQueue
	persister   *worker.Persister
	categorizer schedule.Categorizer
	queueSize   int

	started bool
	logger  logger.Logger
}

// New constructs a Tracker over store and source.
func New(store Store, source seed.Source, opts ...Option) *Tracker {
	t := &Tracker{
		events:      []model.Event{},
		selection:   DefaultSelection(),
		store:       store,
		categorizer: schedule.Default,
		queueSize:   defaultQueueSize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.loader = NewLoader(store, source, WithLoaderLogger(t.logger.Named("loader")))
	t.resetPersister()
	return t
}

// resetPersister installs a fresh, unstarted queue and persister. A stopped
// persister cannot be restarted, so Stop calls this to keep Start usable.
func (t *Tracker) resetPersister() {
	t.queue = queue.NewInMemoryQueue(queue.WithCapacity(t.queueSize))
	t.persister = worker.NewPersister(t.queue, t.store, worker.WithLogger(t.logger.Named("persister")))
}

// Start loads the initial collection and starts the persister. A load
// failure is returned but leaves the tracker running with an empty
// collection so Reset can retry.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}
	t.logger.Info(ctx, "starting tracker...")

	t.persister.Start(context.WithoutCancel(ctx))
	t.started = true

	events, origin, err := t.loader.load(ctx)
	t.replace(events, origin, err)
	if err != nil {
		return err
	}

	t.logger.Info(ctx, "tracker started",
		logger.String("origin", origin),
		logger.Int("count", len(events)),
		logger.Int("queueSize", t.queueSize),
	)
	return nil
}

// replace must be called with mu held.
func (t *Tracker) replace(events []model.Event, origin string, err error) {
	if events == nil {
		events = []model.Event{}
	}
	t.events = events
	t.origin = origin
	t.loadErr = err
	metrics.UpdateCollectionSize(len(events))
}

// Stop drains pending snapshots and stops the persister.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	t.logger.Info(ctx, "stopping tracker...")
	if err := t.persister.Shutdown(ctx); err != nil {
		t.logger.Error(ctx, "persister shutdown failed", logger.Error(err))
	}
	t.resetPersister()
	t.started = false
	t.logger.Info(ctx, "tracker stopped")
}

// Events returns a copy of the whole collection in stored order.
func (t *Tracker) Events() []model.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.Clone(t.events)
}

// Event looks up one event by id.
func (t *Tracker) Event(id model.ID) (model.Event, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

// Categories returns the distinct categories in first-seen order.
func (t *Tracker) Categories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.Categories(t.events)
}

// SetStatus records a new registration status for one event. Memory is
// updated first; the snapshot is persisted asynchronously and a failed
// save never rolls the change back.
func (t *Tracker) SetStatus(ctx context.Context, id model.ID, status model.Status) (model.Event, error) {
	const op = "service.set_status"
	if !status.Valid() {
		return model.Event{}, errkind.WrapKind(op, ErrInvalidStatus, fmt.Errorf("%q", status))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return model.Event{}, errkind.NewKind(op, ErrNotStarted)
	}
	out, updated, ok := model.WithStatus(t.events, id, status)
	if !ok {
		return model.Event{}, errkind.WrapKind(op, ErrNotFound, fmt.Errorf("id %q", id))
	}
	t.events = out
	// Enqueue under the lock so snapshots reach the persister in mutation order.
	t.persister.Persist(ctx, out)

	metrics.RecordStatusChange(string(status))
	t.logger.Debug(ctx, "status changed",
		logger.String("id", string(id)),
		logger.String("status", string(status)),
	)
	return updated, nil
}

// Selection returns the current selection.
func (t *Tracker) Selection() Selection {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selection
}

// SetSelection replaces the current selection.
func (t *Tracker) SetSelection(sel Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection = sel
}

// Render runs the pipeline with the current selection.
func (t *Tracker) Render() types.Buckets {
	return t.View(t.Selection())
}

// View runs filter, then sort, then categorize over the collection.
func (t *Tracker) View(sel Selection) types.Buckets {
	start := time.Now()

	events := t.Events()
	events = filter.Apply(events, sel.Criteria)
	events = sorting.Apply(events, sel.Sort)
	buckets := t.categorizer.Categorize(events)

	metrics.RecordRender(float64(time.Since(start).Microseconds())/1000, len(buckets.Upcoming), len(buckets.Past))
	return buckets
}

// Reset discards local state and reloads from the seed. Pending snapshots
// are flushed first so none of them lands after the clear. On failure the
// collection is left empty and the error is returned.
func (t *Tracker) Reset(ctx context.Context) ([]model.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return nil, errkind.NewKind("service.reset", ErrNotStarted)
	}
	if err := t.persister.Flush(ctx); err != nil {
		t.logger.Warn(ctx, "flush before reset failed", logger.Error(err))
	}

	t.store.Clear(ctx)
	events, origin, err := t.loader.load(ctx)
	t.replace(events, origin, err)
	if err != nil {
		t.logger.Error(ctx, "reset failed", logger.Error(err))
		return nil, err
	}
	t.logger.Info(ctx, "tracker reset", logger.Int("count", len(events)))
	return model.Clone(t.events), nil
}

// GetStats returns tracker statistics for monitoring.
func (t *Tracker) GetStats(ctx context.Context) Stats {
	buckets := t.categorizer.Categorize(t.Events())

	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		Started:    t.started,
		Origin:     t.origin,
		Total:      len(t.events),
		Upcoming:   len(buckets.Upcoming),
		Past:       len(buckets.Past),
		ByStatus:   make(map[model.Status]int, len(model.Statuses)),
		Categories: len(model.Categories(t.events)),
		Persist:    t.persister.Stats(ctx),
	}
	for _, s := range model.Statuses {
		stats.ByStatus[s] = 0
	}
	for _, e := range t.events {
		stats.ByStatus[e.Status]++
	}
	if ts, ok := t.store.LastUpdated(ctx); ok {
		stats.LastUpdated = ts
	}
	if t.loadErr != nil {
		stats.LoadError = t.loadErr.Error()
	}
	return stats
}
