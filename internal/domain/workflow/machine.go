package workflow

import "context"

// StateMachine tracks the status of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// Next resolves the target state for a trigger without moving the machine
	Next(ctx context.Context, trigger Trigger) (State, error)

	// Fire moves the machine along the first edge whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state, sorted
	PermittedTriggers() []Trigger
}
