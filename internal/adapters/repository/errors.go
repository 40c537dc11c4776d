package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = errors.New("key not found")
	ErrStorage       = errors.New("storage failure")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrCorrupt       = errors.New("stored envelope is corrupt")
	ErrClosed        = errors.New("storage closed")
)
