package errors

import "errors"

var (
	ErrNotFound = errors.New("bid not found")

	ErrInvalidID = errors.New("invalid bid ID format")
)
