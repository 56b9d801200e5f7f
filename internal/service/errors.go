package service

import "errors"

// Failure kinds surfaced to the transport layer. Each is a stable sentinel
// so callers can branch with errors.Is and map to a response code; none of
// them is recovered silently inside the core.
var (
	// ErrInvalidFrequency rejects an empty or malformed weekday set at
	// create/update time, before it can reach the scheduler.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrEmptyTitle rejects a task without a title.
	ErrEmptyTitle = errors.New("title is required")

	// ErrTaskNotFound covers both unknown ids and ids owned by another
	// user; the two are indistinguishable to the caller on purpose.
	ErrTaskNotFound = errors.New("task not found")

	// ErrOutOfOrder signals an attempt to complete an occurrence that is
	// not the earliest outstanding one. A business rule, not a bug.
	ErrOutOfOrder = errors.New("occurrence is not the earliest outstanding")

	// ErrAlreadyCompleted signals a repeat completion of the same
	// occurrence. Retry-safe: callers may treat it as success.
	ErrAlreadyCompleted = errors.New("occurrence already completed")
)
