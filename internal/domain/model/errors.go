package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidStatus = errors.New("invalid status")
)
