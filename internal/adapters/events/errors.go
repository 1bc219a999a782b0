package events

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidStatus = errors.New("invalid verification status")
	ErrInvalidRule   = errors.New("invalid correlation rule")
)
