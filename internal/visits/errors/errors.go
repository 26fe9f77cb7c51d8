package errors

import "errors"

var (
	ErrNotFound = errors.New("visit not found")

	ErrInvalidID = errors.New("invalid visit ID format")

	// ErrNoSlotOrDuplicate means the conditional booking update matched
	// nothing: either the slots ran out or the patient already holds one.
	// Callers re-read the visit to tell the two apart.
	ErrNoSlotOrDuplicate = errors.New("no available slot or already booked")

	// ErrNotBooked means a cancellation matched no booking to release.
	ErrNotBooked = errors.New("visit not booked by this patient")

	ErrLockHeld = errors.New("visit lock already held")
)
