package core

import "errors"

var (
	// ErrValidation marks a request rejected before scoring
	ErrValidation = errors.New("invalid analysis request")
	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrUnauthorized is returned when an operation needs an authenticated user
	ErrUnauthorized = errors.New("authentication required")
	// ErrStoreDisabled is returned by read queries when persistence is off
	ErrStoreDisabled = errors.New("analysis store disabled")
)
