package reorder

import "errors"

var (
	// ErrInvalidState is returned when a call does not fit the current state:
	// Begin while a drag is active, or Update while idle.
	ErrInvalidState = errors.New("reorder: invalid state")

	// ErrStaleSession is returned when the collection changed while a drag was open.
	// The session has already been cancelled when this is returned; no move was emitted.
	ErrStaleSession = errors.New("reorder: collection changed during drag")

	// ErrIndexOutOfRange is returned by Begin for an index outside the collection.
	ErrIndexOutOfRange = errors.New("reorder: index out of range")
)
