package mcp

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTool = errors.New("duplicate tool")
	ErrInvalidTool   = errors.New("invalid tool")
)

// ErrorKind classifies a per-request failure for logs. All kinds are framed
// as TypeProcessingError on the wire.
type ErrorKind string

const (
	KindParse         ErrorKind = "parse_error"
	KindUnknownMethod ErrorKind = "unknown_method"
	KindInvalidParams ErrorKind = "invalid_params"
	KindGateway       ErrorKind = "gateway_failure"
	KindSerialization ErrorKind = "serialization_failure"
)

// ProcessingError is a recoverable failure of a single request. Its message
// is sent to the client verbatim.
type ProcessingError struct {
	Kind   ErrorKind
	Method string
	Err    error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func newProcessingError(kind ErrorKind, method string, format string, args ...interface{}) *ProcessingError {
	return &ProcessingError{Kind: kind, Method: method, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the ErrorKind of err, or KindGateway for foreign errors.
func KindOf(err error) ErrorKind {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindGateway
}
