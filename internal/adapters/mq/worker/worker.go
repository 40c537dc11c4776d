// Package worker persists tracker snapshots in the background.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/eventtracker/internal/adapters/mq/queue"
	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/logger"
	"github.com/okian/eventtracker/pkg/metrics"
)

// Saver writes a full collection. It reports failure through the return
// value and never panics.
type Saver interface {
	Save(ctx context.Context, events []model.Event) bool
}

// Queue defines what the persister needs from the snapshot queue.
type Queue interface {
	Enqueue(ctx context.Context, s queue.Snapshot) bool
	EnqueueWait(ctx context.Context, s queue.Snapshot) bool
	Dequeue(ctx context.Context) <-chan queue.Snapshot
	Len(ctx context.Context) int
	Capacity() int
	Close() error
	IsClosed() bool
}

// Stats is a point-in-time view of persister activity.
type Stats struct {
	Saved    int64 `json:"saved"`
	Failed   int64 `json:"failed"`
	Deferred int64 `json:"deferred"`
	Dropped  int64 `json:"dropped"`
	Pending  int   `json:"pending"`
	Capacity int   `json:"capacity"`
}

// Persister is a single consumer that drains snapshots into a Saver in the
// order they were enqueued, so the last write wins.
//
// When the queue is full the newest snapshot is parked in a one-slot
// overflow instead of being lost. Every snapshot still queued is older than
// the parked one, so it is written once the queue has drained; a later
// successful Persist supersedes it.
type Persister struct {
	queue Queue
	saver Saver

	startOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	overflow []model.Event
	parked   bool

	saved    atomic.Int64
	failed   atomic.Int64
	deferred atomic.Int64
	dropped  atomic.Int64

	logger logger.Logger
}

// NewPersister creates a persister over q and s.
func NewPersister(q Queue, s Saver, opts ...Option) *Persister {
	p := &Persister{
		queue:  q,
		saver:  s,
		done:   make(chan struct{}),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the consumer loop in a goroutine. Calls after the first are ignored.
func (p *Persister) Start(ctx context.Context) {
	p.startOnce.Do(func() { go p.Run(ctx) })
}

// Run consumes snapshots until the queue is closed and drained or ctx is done.
func (p *Persister) Run(ctx context.Context) {
	defer close(p.done)

	ch := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			p.handle(ctx, s)
		}
	}
}

func (p *Persister) handle(ctx context.Context, s queue.Snapshot) {
	if !s.Barrier {
		p.save(ctx, s.Events)
	}
	p.saveOverflow(ctx)
	if s.Done != nil {
		close(s.Done)
	}
	metrics.UpdatePersistQueueSize(p.queue.Len(ctx))
}

func (p *Persister) save(ctx context.Context, events []model.Event) {
	if p.saver.Save(ctx, events) {
		p.saved.Add(1)
	} else {
		p.failed.Add(1)
	}
}

// saveOverflow writes the parked snapshot once nothing older is queued.
func (p *Persister) saveOverflow(ctx context.Context) {
	p.mu.Lock()
	if !p.parked || p.queue.Len(ctx) > 0 {
		p.mu.Unlock()
		return
	}
	events := p.overflow
	p.overflow, p.parked = nil, false
	p.mu.Unlock()

	p.save(ctx, events)
}

// Persist schedules events for saving without blocking. When the queue is
// full the snapshot is parked and written after the backlog; it reports
// false in that case. A closed queue drops the snapshot.
func (p *Persister) Persist(ctx context.Context, events []model.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queue.Enqueue(ctx, queue.Snapshot{Events: events}) {
		p.overflow, p.parked = nil, false
		return true
	}
	if p.queue.IsClosed() {
		p.dropped.Add(1)
		metrics.RecordPersistDropped()
		p.logger.Warn(ctx, "persister stopped, snapshot dropped", logger.Int("count", len(events)))
		return false
	}
	p.overflow, p.parked = events, true
	p.deferred.Add(1)
	metrics.RecordPersistDeferred()
	p.logger.Debug(ctx, "persist queue full, snapshot deferred", logger.Int("count", len(events)))
	return false
}

// Flush waits until every snapshot enqueued before the call has been handled.
func (p *Persister) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !p.queue.EnqueueWait(ctx, queue.Snapshot{Barrier: true, Done: done}) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush: %w", ctx.Err())
	}
}

// Shutdown closes the queue and waits for the remaining snapshots, the
// parked one included, to be saved.
func (p *Persister) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	select {
	case <-p.done:
		p.saveOverflow(ctx)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out", logger.Int("pending", p.queue.Len(ctx)))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats returns current counters.
func (p *Persister) Stats(ctx context.Context) Stats {
	return Stats{
		Saved:    p.saved.Load(),
		Failed:   p.failed.Load(),
		Deferred: p.deferred.Load(),
		Dropped:  p.dropped.Load(),
		Pending:  p.queue.Len(ctx),
		Capacity: p.queue.Capacity(),
	}
}
