package entity

import "time"

// ApprovalAction is the decision recorded by one reviewer
type ApprovalAction string

const (
	ApprovalActionApproved ApprovalAction = "approved"
	ApprovalActionRejected ApprovalAction = "rejected"
	ApprovalActionReturned ApprovalAction = "returned"
)

// Approval is an immutable record of one review decision
type Approval struct {
	ID             int64          `json:"approval_id"`
	RequestID      int64          `json:"request_id"`
	ApproverID     int64          `json:"approver_id"`
	Action         ApprovalAction `json:"action"`
	Comments       string         `json:"comments,omitempty"`
	TicketOptionID *int64         `json:"ticket_option_id,omitempty"`
	DecisionDate   time.Time      `json:"decision_date"`
}
