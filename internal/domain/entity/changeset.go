package entity

import (
	"encoding/json"
	"fmt"
	"time"

	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// ChangeType tags a version-history entry
type ChangeType string

const (
	ChangeCreate       ChangeType = "create"
	ChangeSubmit       ChangeType = "submit"
	ChangeApprove      ChangeType = "approve"
	ChangeReject       ChangeType = "reject"
	ChangeReturn       ChangeType = "return"
	ChangeSelectTicket ChangeType = "select_ticket"
	ChangeClose        ChangeType = "close"
	ChangeEdit         ChangeType = "edit"
)

// Changeset describes one mutation of a travel request.
// The implementations below are the complete set.
type Changeset interface {
	Type() ChangeType
	Details() string
}

type CreateChange struct{}

func (CreateChange) Type() ChangeType { return ChangeCreate }
func (CreateChange) Details() string  { return "Request created" }

type SubmitChange struct{}

func (SubmitChange) Type() ChangeType { return ChangeSubmit }
func (SubmitChange) Details() string  { return "Submitted for approval" }

type ApproveChange struct {
	From     domainwf.State
	To       domainwf.State
	Comments string
}

func (ApproveChange) Type() ChangeType { return ChangeApprove }
func (c ApproveChange) Details() string {
	return fmt.Sprintf("Approved by %s", c.From)
}

type RejectChange struct {
	From     domainwf.State
	Comments string
}

func (RejectChange) Type() ChangeType { return ChangeReject }
func (c RejectChange) Details() string {
	return fmt.Sprintf("Rejected by %s", c.From)
}

type ReturnChange struct {
	From     domainwf.State
	To       domainwf.State
	Comments string
}

func (ReturnChange) Type() ChangeType { return ChangeReturn }
func (c ReturnChange) Details() string {
	return fmt.Sprintf("Returned from %s to %s", c.From, c.To)
}

type SelectTicketChange struct {
	TicketOptionID int64
}

func (SelectTicketChange) Type() ChangeType { return ChangeSelectTicket }
func (c SelectTicketChange) Details() string {
	return fmt.Sprintf("Selected ticket option %d", c.TicketOptionID)
}

type CloseChange struct {
	Comments string
}

func (CloseChange) Type() ChangeType { return ChangeClose }
func (CloseChange) Details() string  { return "Request closed" }

type EditChange struct {
	Fields []string
}

func (EditChange) Type() ChangeType { return ChangeEdit }
func (c EditChange) Details() string {
	if len(c.Fields) == 0 {
		return "Travel details updated"
	}
	return fmt.Sprintf("Travel details updated: %v", c.Fields)
}

// VersionEntry is one append-only record in a request's history
type VersionEntry struct {
	Timestamp time.Time
	UserID    int64
	Changeset Changeset
}

// changesetEnvelope is the flat JSON shape of a version entry
type changesetEnvelope struct {
	Timestamp      time.Time      `json:"timestamp"`
	UserID         int64          `json:"user_id"`
	Type           ChangeType     `json:"type"`
	Details        string         `json:"details"`
	Comments       string         `json:"comments,omitempty"`
	From           domainwf.State `json:"from,omitempty"`
	To             domainwf.State `json:"to,omitempty"`
	TicketOptionID int64          `json:"ticket_option_id,omitempty"`
	Fields         []string       `json:"fields,omitempty"`
}

func (e VersionEntry) MarshalJSON() ([]byte, error) {
	if e.Changeset == nil {
		return nil, fmt.Errorf("version entry at %s has no changeset", e.Timestamp.Format(time.RFC3339))
	}

	env := changesetEnvelope{
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Type:      e.Changeset.Type(),
		Details:   e.Changeset.Details(),
	}

	switch c := e.Changeset.(type) {
	case CreateChange, SubmitChange:
	case ApproveChange:
		env.From, env.To, env.Comments = c.From, c.To, c.Comments
	case RejectChange:
		env.From, env.Comments = c.From, c.Comments
	case ReturnChange:
		env.From, env.To, env.Comments = c.From, c.To, c.Comments
	case SelectTicketChange:
		env.TicketOptionID = c.TicketOptionID
	case CloseChange:
		env.Comments = c.Comments
	case EditChange:
		env.Fields = c.Fields
	default:
		return nil, fmt.Errorf("unsupported changeset %T", e.Changeset)
	}

	return json.Marshal(env)
}

func (e *VersionEntry) UnmarshalJSON(data []byte) error {
	var env changesetEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var cs Changeset
	switch env.Type {
	case ChangeCreate:
		cs = CreateChange{}
	case ChangeSubmit:
		cs = SubmitChange{}
	case ChangeApprove:
		cs = ApproveChange{From: env.From, To: env.To, Comments: env.Comments}
	case ChangeReject:
		cs = RejectChange{From: env.From, Comments: env.Comments}
	case ChangeReturn:
		cs = ReturnChange{From: env.From, To: env.To, Comments: env.Comments}
	case ChangeSelectTicket:
		cs = SelectTicketChange{TicketOptionID: env.TicketOptionID}
	case ChangeClose:
		cs = CloseChange{Comments: env.Comments}
	case ChangeEdit:
		cs = EditChange{Fields: env.Fields}
	default:
		return fmt.Errorf("unknown changeset type %q", env.Type)
	}

	e.Timestamp = env.Timestamp
	e.UserID = env.UserID
	e.Changeset = cs
	return nil
}
