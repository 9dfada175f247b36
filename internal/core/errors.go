package core

// errors.go defines the error taxonomy for conversion runs.
//
// Every failure is fatal to the run that produced it: the converter stops at
// the first error and reports it with enough context to diagnose (line
// number, byte offset, or the wrapped OS error). Callers classify errors
// with errors.Is / errors.As.

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound indicates the input path is missing or unreadable.
	// The underlying OS error is wrapped.
	ErrInputNotFound = errors.New("input file not found")

	// ErrOutputWrite indicates the output file could not be created,
	// written, flushed, or closed. The underlying cause is wrapped.
	ErrOutputWrite = errors.New("output write failed")

	// ErrUnknownFormat indicates the requested source format key has not
	// been registered.
	ErrUnknownFormat = errors.New("unknown source format")

	// ErrUnknownJob indicates a conversion job ID that does not exist or
	// whose record has already been cleaned up.
	ErrUnknownJob = errors.New("unknown conversion job")
)

// MalformedRowError reports a CSV structural violation (wrong field count or
// broken quoting) on a specific input line.
type MalformedRowError struct {
	Line int   // 1-based line number in the input
	Err  error // underlying parse error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: %v", e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// DecodeError reports input that is not valid UTF-8.
// Offset is the byte position of the first invalid byte, counted within the
// decoded text (after any byte order mark).
type DecodeError struct {
	Offset int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid UTF-8 sequence at byte %d", e.Offset)
}

// SchemaError reports topic configuration that cannot produce a valid output
// schema. It is raised before any file is touched.
type SchemaError struct {
	Topic  string // offending topic name, empty when the problem is not tied to one
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Topic == "" {
		return "invalid topic configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid topic %q: %s", e.Topic, e.Reason)
}
