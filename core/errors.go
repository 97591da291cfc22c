package core

import "errors"

var (
	// ErrCapacityExceeded is returned by Start when no timer slot is free.
	// Timers that are already armed are unaffected.
	ErrCapacityExceeded = errors.New("timer capacity exceeded")

	// ErrNotFound is returned by TimerList.Remove for an id that is not armed.
	// The scheduler swallows it: cancelling a fired or unknown timer is a no-op.
	ErrNotFound = errors.New("timer not found")

	// ErrDuplicateID means the id generator handed out an id that is still armed.
	ErrDuplicateID = errors.New("duplicate timer id")

	ErrNilCallback        = errors.New("timer callback is nil")
	ErrNotInitialized     = errors.New("timer subsystem not initialized")
	ErrAlreadyInitialized = errors.New("timer subsystem already initialized")
)
