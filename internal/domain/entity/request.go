package entity

import (
	"fmt"
	"time"

	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// TravelDetails is the trip payload. The workflow carries it without interpreting it.
type TravelDetails struct {
	Source          string           `json:"source" validate:"required"`
	Destination     string           `json:"destination" validate:"required"`
	StartDate       time.Time        `json:"start_date" validate:"required"`
	EndDate         time.Time        `json:"end_date" validate:"required,gtefield=StartDate"`
	Purpose         string           `json:"purpose"`
	ProjectCode     string           `json:"project_code,omitempty"`
	EstimatedCost   *decimal.Decimal `json:"estimated_cost,omitempty"`
	AdditionalNotes string           `json:"additional_notes,omitempty"`
}

// Validate checks that the trip has both ends and a date range
func (d TravelDetails) Validate() error {
	return validateStruct(&d)
}

// ApprovalStep binds one workflow role to the user who acts for it on a request
type ApprovalStep struct {
	Role   Role  `json:"role" validate:"required,oneof=manager du_head admin"`
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// ApprovalChain maps each reviewing role to its chain-bound approver
type ApprovalChain []ApprovalStep

// ChainRoles are the roles every approval chain must bind
var ChainRoles = []Role{RoleManager, RoleDUHead, RoleAdmin}

// UserFor returns the user bound to role, if any
func (c ApprovalChain) UserFor(role Role) (int64, bool) {
	for _, step := range c {
		if step.Role == role {
			return step.UserID, true
		}
	}
	return 0, false
}

// Validate checks step fields and that each of ChainRoles is bound exactly once
func (c ApprovalChain) Validate() error {
	seen := make(map[Role]bool, len(c))
	for i := range c {
		if err := validateStruct(&c[i]); err != nil {
			return fmt.Errorf("approval chain step %d: %w", i, err)
		}
		if seen[c[i].Role] {
			return fmt.Errorf("approval chain binds role %s more than once", c[i].Role)
		}
		seen[c[i].Role] = true
	}
	for _, role := range ChainRoles {
		if !seen[role] {
			return fmt.Errorf("approval chain has no %s", role)
		}
	}
	return nil
}

// TravelRequest is the aggregate root of the approval workflow
type TravelRequest struct {
	ID               int64          `json:"request_id"`
	Status           domainwf.State `json:"current_status"`
	RequesterID      int64          `json:"requester_id"`
	TravelDetails    TravelDetails  `json:"travel_details"`
	ApprovalChain    ApprovalChain  `json:"approval_chain"`
	SelectedTicketID *int64         `json:"selected_ticket_id,omitempty"`
	VersionHistory   []VersionEntry `json:"version_history"`
	Revision         int64          `json:"revision"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with r
func (r *TravelRequest) Clone() *TravelRequest {
	c := *r
	c.ApprovalChain = append(ApprovalChain(nil), r.ApprovalChain...)
	c.VersionHistory = append([]VersionEntry(nil), r.VersionHistory...)
	if r.SelectedTicketID != nil {
		id := *r.SelectedTicketID
		c.SelectedTicketID = &id
	}
	if r.TravelDetails.EstimatedCost != nil {
		cost := *r.TravelDetails.EstimatedCost
		c.TravelDetails.EstimatedCost = &cost
	}
	return &c
}

// Record appends a version entry and refreshes UpdatedAt
func (r *TravelRequest) Record(at time.Time, userID int64, change Changeset) {
	r.VersionHistory = append(r.VersionHistory, VersionEntry{
		Timestamp: at,
		UserID:    userID,
		Changeset: change,
	})
	r.UpdatedAt = at
}

// Snapshot captures the workflow-relevant state for the audit log
func (r *TravelRequest) Snapshot() StateSnapshot {
	s := StateSnapshot{Status: r.Status}
	if r.SelectedTicketID != nil {
		id := *r.SelectedTicketID
		s.SelectedTicketID = &id
	}
	return s
}
