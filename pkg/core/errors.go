package core

import "errors"

var (
	// ErrInvalidInput marks caller mistakes: a missing or oversized term, an
	// unknown provider in a file path, a malformed display filter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks an audio file the provider origin could not serve.
	ErrNotFound = errors.New("not found")

	// ErrStore marks a failure talking to the entry index.
	ErrStore = errors.New("entry store failure")
)

// InputError carries the plain-text reason returned to the client.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// NewInputError returns an error matching ErrInvalidInput with the given reason.
func NewInputError(reason string) error {
	return &InputError{Reason: reason}
}

// WrapInputError is NewInputError with an underlying cause appended to the reason.
func WrapInputError(reason string, err error) error {
	return &InputError{Reason: reason, Err: err}
}
