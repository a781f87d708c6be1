package models

import "errors"

var (
	// ErrValidation marks malformed caller input (bad price, bad phone,
	// out-of-range rating). Surfaced to the caller, never a system fault.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to an order or driver that does not exist.
	ErrNotFound = errors.New("not found")
)
