// Package queue carries persistence snapshots from the tracker to the
// persister in FIFO order.
package queue

import (
	"context"
	"sync"

	"github.com/okian/eventtracker/internal/domain/model"
	"github.com/okian/eventtracker/pkg/metrics"
)

const defaultQueueCapacity = 64

// Snapshot is one unit of work for the persister. A barrier carries no
// events and only signals Done once everything before it has been handled.
type Snapshot struct {
	Events  []model.Event
	Barrier bool
	Done    chan struct{}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds s without blocking. Returns false when full or closed.
	Enqueue(ctx context.Context, s Snapshot) bool

	// EnqueueWait adds s, blocking until there is room or ctx is done.
	EnqueueWait(ctx context.Context, s Snapshot) bool

	// Dequeue returns the receive side. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close stops accepting snapshots. Queued ones stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Snapshot
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Snapshot, q.capacity)
	metrics.UpdatePersistQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.items <- s:
		metrics.UpdatePersistQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// EnqueueWait implements Queue.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, s Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.items <- s:
		metrics.UpdatePersistQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		return false
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan Snapshot {
	return q.items
}

// Len implements Queue.
func (q *InMemoryQueue) Len(context.Context) int {
	n := len(q.items)
	metrics.UpdatePersistQueueSize(n)
	return n
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close implements Queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
