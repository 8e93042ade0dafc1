package service

import "errors"

var (
	// ErrNotFound means the id is not in the local list.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the input was rejected before any remote call.
	ErrValidation = errors.New("validation failed")
	// ErrPolicyViolation means the operation is not allowed in the current state.
	ErrPolicyViolation = errors.New("not allowed")
	// ErrRemoteFailure wraps a failed store call.
	ErrRemoteFailure = errors.New("remote call failed")
	// ErrCancelled means the user declined a confirmation.
	ErrCancelled = errors.New("cancelled")
)
