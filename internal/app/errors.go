package service

import (
	"errors"

	"github.com/okian/eventtracker/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrLoad       = errors.New("failed to load events")
	ErrValidation = errors.New("invalid seed data")
	ErrNotFound   = errors.New("event not found")
	ErrNotStarted = errors.New("tracker not started")

	// ErrInvalidStatus aliases the model sentinel so either package can be matched.
	ErrInvalidStatus = model.ErrInvalidStatus
)
