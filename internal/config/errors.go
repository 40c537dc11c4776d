package config

import "errors"

var (
	// ErrInvalidConfig marks a setting that failed Validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks an unreadable TRACKER_CONFIG file or a value that
	// cannot be decoded into its field.
	ErrLoadConfig = errors.New("load config failed")
)
