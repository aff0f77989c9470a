package rankfile

import (
	"errors"
	"fmt"
)

// ErrMalformedRanking is returned for ranking files that do not follow the
// entry/boundary line grammar.
var ErrMalformedRanking = errors.New("malformed ranking file")

// FormatError locates a grammar violation in a ranking file.
type FormatError struct {
	Line int    // 1-based line number
	Text string // offending line
	Err  error  // detail
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %v: %v (line %q)", e.Line, ErrMalformedRanking, e.Err, e.Text)
}

// Unwrap exposes the sentinel kind and the detail.
func (e *FormatError) Unwrap() []error {
	return []error{ErrMalformedRanking, e.Err}
}

var (
	errMissingHeader    = errors.New("missing header")
	errMissingSeparator = errors.New("missing separator line")
	errEntryFields      = errors.New("entry needs raw score, z-score and system name")
	errLeadingBoundary  = errors.New("boundary must follow an entry")
	errTrailingBoundary = errors.New("boundary after the last entry")
)
