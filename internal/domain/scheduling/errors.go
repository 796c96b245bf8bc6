package scheduling

import "errors"

// ErrAppointmentNotFound is returned when a status update matches no row.
var ErrAppointmentNotFound = errors.New("appointment not found")

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamQueryError wraps a failure from the backing store.
type UpstreamQueryError struct {
	Op  string
	Err error
}

func (e *UpstreamQueryError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *UpstreamQueryError) Unwrap() error { return e.Err }
