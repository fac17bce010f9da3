package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMalformedTable    = errors.New("malformed table")
	ErrMalformedDocument = errors.New("malformed document")
)

// ParseError aborts a whole parse. Kind is one of the sentinels above and Err
// carries the underlying cause.
type ParseError struct {
	Kind   error
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %v", e.Format, e.Kind)
	}
	return fmt.Sprintf("parse %s: %v: %v", e.Format, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches the error kind so callers can use errors.Is with the sentinels.
func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind
}

func newParseError(kind error, format Format, cause error) *ParseError {
	return &ParseError{Kind: kind, Format: format, Err: cause}
}

// Diagnostic describes input that was skipped without failing the parse.
type Diagnostic struct {
	Source  string `json:"source"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %d: %s", d.Source, d.Index, d.Message)
}
