package workflow

// Trigger is an operation that can move a request between statuses
type Trigger string

const (
	TriggerSubmit       Trigger = "submit"
	TriggerApprove      Trigger = "approve"
	TriggerReject       Trigger = "reject"
	TriggerReturn       Trigger = "return"
	TriggerSelectTicket Trigger = "select_ticket"
	TriggerClose        Trigger = "close"
	TriggerEdit         Trigger = "edit"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
