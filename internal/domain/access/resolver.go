// Package access decides which user may act on a travel request in its current status.
package access

import (
	"fmt"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Mode selects how strictly reviewers are matched to a request
type Mode string

const (
	// ModeStrict requires the acting reviewer to be the chain-bound user for the role
	ModeStrict Mode = "strict"
	// ModeRole accepts any user holding the required role
	ModeRole Mode = "role"
)

// ParseMode maps a config value to a Mode. Empty selects strict.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeRole:
		return ModeRole, nil
	default:
		return "", fmt.Errorf("unknown authorization mode %q", value)
	}
}

var requiredRoles = map[domainwf.State]entity.Role{
	domainwf.StateManagerPending:   entity.RoleManager,
	domainwf.StateDUPending:        entity.RoleDUHead,
	domainwf.StateAdminPending:     entity.RoleAdmin,
	domainwf.StateManagerSelection: entity.RoleManager,
	domainwf.StateDUFinal:          entity.RoleDUHead,
}

// RequiredRole returns the role that acts on a request in status
func RequiredRole(status domainwf.State) (entity.Role, bool) {
	role, ok := requiredRoles[status]
	return role, ok
}

// StatusesForRole lists, in pipeline order, the statuses a role acts on
func StatusesForRole(role entity.Role) []domainwf.State {
	var out []domainwf.State
	for _, s := range domainwf.ReviewStates() {
		if requiredRoles[s] == role {
			out = append(out, s)
		}
	}
	return out
}

// Resolver answers permission and routing questions for requests
type Resolver struct {
	mode Mode
}

// NewResolver creates a resolver. An unknown mode falls back to strict.
func NewResolver(mode Mode) *Resolver {
	if mode != ModeRole {
		mode = ModeStrict
	}
	return &Resolver{mode: mode}
}

// Mode returns the configured matching mode
func (r *Resolver) Mode() Mode {
	return r.mode
}

// CanAct reports whether user may act on req right now
func (r *Resolver) CanAct(user *entity.User, req *entity.TravelRequest) bool {
	if user == nil || req == nil {
		return false
	}

	if req.Status == domainwf.StateDraft {
		return req.RequesterID == user.ID
	}

	if !req.Status.IsUnderReview() {
		return false
	}
	role, _ := RequiredRole(req.Status)
	if user.Role != role {
		return false
	}

	if r.mode == ModeRole {
		return true
	}

	bound, ok := req.ApprovalChain.UserFor(role)
	return ok && bound == user.ID
}

// NextApprover returns the chain-bound user for the role req's status requires.
// Call it on the request after the transition has been applied.
func (r *Resolver) NextApprover(req *entity.TravelRequest) (int64, bool) {
	role, ok := RequiredRole(req.Status)
	if !ok {
		return 0, false
	}
	return req.ApprovalChain.UserFor(role)
}

// ReturnTarget returns who receives a request sent back into status to
func (r *Resolver) ReturnTarget(req *entity.TravelRequest, to domainwf.State) (int64, bool) {
	if to == domainwf.StateDraft {
		return req.RequesterID, true
	}
	role, ok := RequiredRole(to)
	if !ok {
		return 0, false
	}
	return req.ApprovalChain.UserFor(role)
}
