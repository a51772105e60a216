package calls

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a line that could not be turned into a CallRecord.
type ErrorKind int

const (
	MalformedLine ErrorKind = iota + 1
	InvalidTimestamp
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedLine:
		return "malformed_line"
	case InvalidTimestamp:
		return "invalid_timestamp"
	default:
		return "unknown"
	}
}

var (
	ErrMissingDelimiter = errors.New("missing \": \" delimiter")
	ErrMissingAreaCode  = errors.New("missing area code")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// ParseError wraps a parse failure with the offending line.
type ParseError struct {
	Kind ErrorKind
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v (line: %q)", e.Kind, e.Err, e.Line)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
