package identity

import "errors"

var (
	// ErrNoIdentity means the identity store accepted a registration but
	// returned no identity for it.
	ErrNoIdentity         = errors.New("identity was not created")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RejectedError is a registration refused because of its input.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }
