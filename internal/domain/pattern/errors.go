package pattern

import "errors"

// Sentinel kinds for pattern registration errors.
var (
	ErrInvalidPattern = errors.New("invalid pattern")
)
