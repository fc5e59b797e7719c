package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Change Errors.

	// ErrUnknownChange indicates an identity that is not part of the current change set.
	ErrUnknownChange = errors.New("unknown change")

	// ErrNothingSelected indicates an apply was requested with no selected, visible changes.
	ErrNothingSelected = errors.New("no changes selected")

	// Backend Errors.

	// ErrTransport indicates the backend could not be reached or answered
	// with a non-success status and no structured body.
	// Local state is never mutated when this error is returned.
	ErrTransport = errors.New("transport failure")

	// Progress Stream Errors.

	// ErrNotConnected indicates an edit was started without an open progress stream.
	ErrNotConnected = errors.New("not connected")

	// ErrReconnectExhausted indicates the progress stream gave up reconnecting.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)
