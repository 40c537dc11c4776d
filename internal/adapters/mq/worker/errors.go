package worker

import "errors"

// ErrStopped is returned when the persister no longer accepts work.
var ErrStopped = errors.New("persister stopped")
