package service

import (
	"github.com/okian/eventtracker/internal/domain/schedule"
	"github.com/okian/eventtracker/internal/domain/sorting"
	"github.com/okian/eventtracker/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock sets the clock deciding which events are upcoming.
func WithClock(c schedule.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.categorizer = schedule.Categorizer{Clock: c}
		}
	}
}

// WithQueueSize sets the maximum number of pending persistence snapshots.
func WithQueueSize(size int) Option {
	return func(t *Tracker) {
		if size > 0 {
			t.queueSize = size
		}
	}
}

// WithDefaultSort sets the sort policy of the initial selection.
func WithDefaultSort(p sorting.Policy) Option {
	return func(t *Tracker) {
		t.selection.Sort = p
	}
}
