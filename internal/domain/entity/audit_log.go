package entity

import (
	"encoding/json"
	"time"

	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// AuditAction names the workflow operation an audit entry mirrors
type AuditAction string

const (
	AuditActionCreate          AuditAction = "create"
	AuditActionSubmit          AuditAction = "submit"
	AuditActionApprove         AuditAction = "approve"
	AuditActionReject          AuditAction = "reject"
	AuditActionReturn          AuditAction = "return"
	AuditActionSelectTicket    AuditAction = "select_ticket"
	AuditActionClose           AuditAction = "close"
	AuditActionEdit            AuditAction = "edit"
	AuditActionAddTicketOption AuditAction = "add_ticket_option"
)

// StateSnapshot is the part of a request the audit log captures before and after an operation
type StateSnapshot struct {
	Status           domainwf.State `json:"status,omitempty"`
	SelectedTicketID *int64         `json:"selected_ticket_id,omitempty"`
	TicketOptionID   *int64         `json:"ticket_option_id,omitempty"`
	TravelDetails    *TravelDetails `json:"travel_details,omitempty"`
}

// AuditLog is an append-only compliance record, one per operation invocation
type AuditLog struct {
	ID          int64           `json:"log_id"`
	RequestID   int64           `json:"request_id"`
	UserID      int64           `json:"user_id"`
	ActionType  AuditAction     `json:"action_type"`
	BeforeState StateSnapshot   `json:"before_state"`
	AfterState  StateSnapshot   `json:"after_state"`
	Diff        json.RawMessage `json:"diff,omitempty"`
	IPAddress   string          `json:"ip_address"`
	Timestamp   time.Time       `json:"timestamp"`
}
