// Package dedupe tracks which event ids have been seen.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/eventtracker/internal/domain/model"
)

// Deduper records seen ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id model.ID) bool
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[model.ID]struct{}
}

// NewInMemoryDeduper creates an empty deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &inMemoryDeduper{seen: make(map[model.ID]struct{}, cfg.sizeHint)}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id model.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// FirstDuplicate returns the first id in events that repeats an earlier one.
func FirstDuplicate(ctx context.Context, events []model.Event) (model.ID, bool) {
	d := NewInMemoryDeduper(WithSizeHint(len(events)))
	for _, e := range events {
		if d.SeenAndRecord(ctx, e.ID) {
			return e.ID, true
		}
	}
	return "", false
}
