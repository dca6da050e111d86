package events

import "errors"

var (
	ErrNotFound = errors.New("event not found")

	// ErrForbidden is returned when the caller is neither the event's
	// creator nor an ultimate admin.
	ErrForbidden = errors.New("not allowed to modify this event")

	ErrInvalidStatus = errors.New("invalid event status")
)
