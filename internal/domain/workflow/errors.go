package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a request, user or ticket option id does not resolve
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when the current status has no edge for the operation
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized is returned when the actor may not act on the request now
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is returned when a request cannot be created or edited as given
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentModification is returned when another writer updated the request first
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrUnknownState is returned when a stored status is not a workflow state
	ErrUnknownState = errors.New("unknown state")

	// ErrInvalidTransition is returned when a trigger has no edge from the current state
	ErrInvalidTransition = fmt.Errorf("%w: transition not permitted", ErrInvalidState)

	// ErrGuardFailed is returned when every guarded edge for a trigger rejects
	ErrGuardFailed = fmt.Errorf("%w: guard condition failed", ErrInvalidState)
)
