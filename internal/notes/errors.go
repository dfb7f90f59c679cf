package notes

import "errors"

// Sentinel errors mapped to specific API responses by the handlers.
var (
	ErrNotOwner = errors.New("note does not belong to user")
	ErrSelfVote = errors.New("cannot vote on your own note")
)
