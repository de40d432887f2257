package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated    Type = "request.created"
	TypeRequestEdited     Type = "request.edited"
	TypeRequestSubmitted  Type = "request.submitted"
	TypeRequestAdvanced   Type = "request.advanced"
	TypeRequestApproved   Type = "request.approved"
	TypeRequestRejected   Type = "request.rejected"
	TypeRequestReturned   Type = "request.returned"
	TypeTicketSelected    Type = "request.ticket_selected"
	TypeRequestClosed     Type = "request.closed"
	TypeTicketOptionAdded Type = "ticket_option.added"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestEdited,
		TypeRequestSubmitted,
		TypeRequestAdvanced,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestReturned,
		TypeTicketSelected,
		TypeRequestClosed,
		TypeTicketOptionAdded:
		return true
	default:
		return false
	}
}
