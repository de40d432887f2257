package workflow

import "fmt"

// State is a travel request status in the approval pipeline
type State string

const (
	StateDraft            State = "draft"
	StateManagerPending   State = "manager_pending"
	StateDUPending        State = "du_pending"
	StateAdminPending     State = "admin_pending"
	StateManagerSelection State = "manager_selection"
	StateDUFinal          State = "du_final"
	StateApproved         State = "approved"
	StateRejected         State = "rejected"
	StateClosed           State = "closed"
)

var validStates = map[State]bool{
	StateDraft:            true,
	StateManagerPending:   true,
	StateDUPending:        true,
	StateAdminPending:     true,
	StateManagerSelection: true,
	StateDUFinal:          true,
	StateApproved:         true,
	StateRejected:         true,
	StateClosed:           true,
}

var terminalStates = map[State]bool{
	StateRejected: true,
	StateClosed:   true,
}

// reviewStates are the statuses in which a chain-bound reviewer holds the request
var reviewStates = map[State]bool{
	StateManagerPending:   true,
	StateDUPending:        true,
	StateAdminPending:     true,
	StateManagerSelection: true,
	StateDUFinal:          true,
}

// IsTerminal returns true if no transition leaves the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsUnderReview returns true for the five reviewer-held statuses
func (s State) IsUnderReview() bool {
	return reviewStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a stored status value into a State
func ParseState(value string) (State, error) {
	s := State(value)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, value)
	}
	return s, nil
}

// ReviewStates lists the reviewer-held statuses in pipeline order
func ReviewStates() []State {
	return []State{
		StateManagerPending,
		StateDUPending,
		StateAdminPending,
		StateManagerSelection,
		StateDUFinal,
	}
}
