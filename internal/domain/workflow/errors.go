package workflow

import "errors"

// Sentinel errors of the transition graph. The machine wraps them with the
// trigger and states involved; callers discriminate with errors.Is.
var (
	// ErrInvalidTransition reports a trigger the current state does not permit.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed reports a permitted transition whose guard rejected it.
	ErrGuardFailed = errors.New("guard condition failed")
)
