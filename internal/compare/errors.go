package compare

import (
	"errors"
)

// Sentinel kinds for comparison batch errors.
var (
	ErrMalformedPairs = errors.New("malformed pairs list")
	ErrSuffixes       = errors.New("exactly two suffixes are required")
)
