package scheduler

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrInvalidJob = errors.New("invalid job")
)
