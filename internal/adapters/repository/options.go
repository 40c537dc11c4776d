// Package repository implements the durable event store.
package repository

import (
	"time"

	"github.com/okian/eventtracker/pkg/logger"
)

// DefaultNamespace is the fixed key the envelope lives under.
const DefaultNamespace = "bengaluru-tech-events"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithNamespace overrides the storage key.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithQuota rejects envelopes larger than maxBytes with ErrQuotaExceeded.
// Zero or negative means unlimited.
func WithQuota(maxBytes int) Option {
	return func(s *Store) {
		s.quota = maxBytes
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for lastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
