package significance

import "errors"

// Sentinel kinds for significance testing errors.
var (
	ErrEmptySample = errors.New("empty sample")
)
