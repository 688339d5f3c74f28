package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrClaimLost means the post is no longer held by the caller's claim token.
	ErrClaimLost = errors.New("post claim lost")
	// ErrStatusConflict means the post is not in a status that allows the change.
	ErrStatusConflict = errors.New("post status does not allow this change")
)
