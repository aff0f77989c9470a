package judgments

import (
	"errors"
	"fmt"
)

// Sentinel kinds for judgment loading errors.
var (
	ErrMalformedRecord = errors.New("malformed judgment record")
	ErrOpenSource      = errors.New("open judgment source")
)

// ParseError reports a record that does not match the fixed 12-field schema.
// It unwraps to ErrMalformedRecord, and to the conversion error when the
// field count was right but a value could not be parsed.
type ParseError struct {
	Path   string // source name
	Line   int    // 1-based line number
	Text   string // offending line
	Fields int    // number of whitespace-separated fields found
	Err    error  // conversion error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %v: %v (line %q)", e.Path, e.Line, ErrMalformedRecord, e.Err, e.Text)
	}
	return fmt.Sprintf("%s:%d: %v: got %d fields, want %d (line %q)", e.Path, e.Line, ErrMalformedRecord, e.Fields, FieldCount, e.Text)
}

// Unwrap exposes both the sentinel kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedRecord, e.Err}
	}
	return []error{ErrMalformedRecord}
}
