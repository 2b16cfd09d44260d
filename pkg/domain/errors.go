package domain

import "errors"

// ErrNoInput is returned when none of the mutually exclusive inputs is supplied.
var ErrNoInput = errors.New("must provide one of message, decisions, or raw input")

// ErrConflictingInput is returned when more than one exclusive input is supplied.
var ErrConflictingInput = errors.New("can only provide one of message, decisions, or raw input")

// ErrInvalidDecision is returned when a decision fails shape validation.
var ErrInvalidDecision = errors.New("invalid decision")

// ErrThreadNotFound is returned when a thread ID cannot be found in the store.
var ErrThreadNotFound = errors.New("thread not found")

// ErrGraphNotFound is returned when a manifest has no graph under the requested name.
var ErrGraphNotFound = errors.New("graph not found")
