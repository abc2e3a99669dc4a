package session

import "errors"

// Sentinel errors returned by Store operations. Handlers map these onto HTTP
// statuses: not-found conditions become 404, invalid values become 400.
var (
	// ErrSessionNotFound means no live session exists for the given code.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEntityNotFound means the entity id has no disposition slot in the
	// session. Ids outside the seeded slot map never accept updates, even
	// when they correspond to a real emitted entity.
	ErrEntityNotFound = errors.New("entity not registered in session")

	// ErrInvalidDisposition means the value is outside the closed
	// disposition enumeration.
	ErrInvalidDisposition = errors.New("invalid disposition value")

	// ErrCodeSpaceExhausted means a fresh session code could not be
	// allocated after repeated collisions.
	ErrCodeSpaceExhausted = errors.New("unable to allocate session code")
)
