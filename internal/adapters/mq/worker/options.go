package worker

import (
	"github.com/okian/eventtracker/pkg/logger"
)

// Option applies a configuration option to the Persister.
type Option func(*Persister)

// WithLogger sets a custom logger for the persister.
func WithLogger(l logger.Logger) Option {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}
