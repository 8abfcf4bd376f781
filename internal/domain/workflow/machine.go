package workflow

import "context"

// StateMachine tracks a document's current status and validates transitions
// against the configured graph.
type StateMachine interface {
	// State returns the current state.
	State() State

	// CanFire returns true if the trigger is permitted in the current state.
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state
	// if the graph and guards allow it.
	Fire(ctx context.Context, trigger Trigger) error

	// Peek returns the state the machine would move to if the trigger fired
	// now, without mutating the machine. When a trigger permits several
	// targets the first one whose guard passes wins.
	Peek(ctx context.Context, trigger Trigger) (State, error)

	// CanMoveTo reports whether the trigger is permitted in the current
	// state with the given target among its configured destinations.
	CanMoveTo(trigger Trigger, to State) bool

	// PermittedTriggers returns all triggers configured for the current state.
	PermittedTriggers() []Trigger
}
