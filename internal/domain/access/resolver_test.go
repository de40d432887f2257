package access

import (
	"testing"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	john  = &entity.User{ID: 1, Role: entity.RoleEmployee}
	sarah = &entity.User{ID: 2, Role: entity.RoleManager}
	mike  = &entity.User{ID: 3, Role: entity.RoleAdmin}
	lisa  = &entity.User{ID: 4, Role: entity.RoleDUHead}
	alex  = &entity.User{ID: 5, Role: entity.RoleEmployee}
	tom   = &entity.User{ID: 6, Role: entity.RoleManager}
)

func requestIn(status domainwf.State) *entity.TravelRequest {
	return &entity.TravelRequest{
		ID:          1,
		Status:      status,
		RequesterID: john.ID,
		ApprovalChain: entity.ApprovalChain{
			{Role: entity.RoleManager, UserID: sarah.ID},
			{Role: entity.RoleDUHead, UserID: lisa.ID},
			{Role: entity.RoleAdmin, UserID: mike.ID},
		},
	}
}

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		status domainwf.State
		role   entity.Role
		ok     bool
	}{
		{domainwf.StateManagerPending, entity.RoleManager, true},
		{domainwf.StateDUPending, entity.RoleDUHead, true},
		{domainwf.StateAdminPending, entity.RoleAdmin, true},
		{domainwf.StateManagerSelection, entity.RoleManager, true},
		{domainwf.StateDUFinal, entity.RoleDUHead, true},
		{domainwf.StateDraft, "", false},
		{domainwf.StateApproved, "", false},
		{domainwf.StateRejected, "", false},
		{domainwf.StateClosed, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			role, ok := RequiredRole(tt.status)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestStatusesForRole(t *testing.T) {
	assert.Equal(t,
		[]domainwf.State{domainwf.StateManagerPending, domainwf.StateManagerSelection},
		StatusesForRole(entity.RoleManager))
	assert.Empty(t, StatusesForRole(entity.RoleEmployee))
}

func TestResolver_CanAct(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		user   *entity.User
		status domainwf.State
		want   bool
	}{
		{"requester on draft", ModeStrict, john, domainwf.StateDraft, true},
		{"other employee on draft", ModeStrict, alex, domainwf.StateDraft, false},
		{"manager on draft", ModeStrict, sarah, domainwf.StateDraft, false},
		{"requester after submit", ModeStrict, john, domainwf.StateManagerPending, false},
		{"bound manager", ModeStrict, sarah, domainwf.StateManagerPending, true},
		{"unbound manager strict", ModeStrict, tom, domainwf.StateManagerPending, false},
		{"unbound manager role mode", ModeRole, tom, domainwf.StateManagerPending, true},
		{"wrong role", ModeStrict, lisa, domainwf.StateManagerPending, false},
		{"du head", ModeStrict, lisa, domainwf.StateDUPending, true},
		{"admin", ModeStrict, mike, domainwf.StateAdminPending, true},
		{"manager selection", ModeStrict, sarah, domainwf.StateManagerSelection, true},
		{"du final", ModeStrict, lisa, domainwf.StateDUFinal, true},
		{"nobody on approved", ModeStrict, mike, domainwf.StateApproved, false},
		{"nobody on rejected", ModeRole, sarah, domainwf.StateRejected, false},
		{"nobody on closed", ModeStrict, john, domainwf.StateClosed, false},
		{"unknown status", ModeRole, sarah, domainwf.State("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.mode)
			assert.Equal(t, tt.want, r.CanAct(tt.user, requestIn(tt.status)))
		})
	}
}

func TestResolver_CanActMissingChainEntry(t *testing.T) {
	req := requestIn(domainwf.StateAdminPending)
	req.ApprovalChain = req.ApprovalChain[:2]

	assert.False(t, NewResolver(ModeStrict).CanAct(mike, req))
	assert.True(t, NewResolver(ModeRole).CanAct(mike, req))
}

func TestResolver_NextApprover(t *testing.T) {
	r := NewResolver(ModeStrict)

	id, ok := r.NextApprover(requestIn(domainwf.StateDUPending))
	require.True(t, ok)
	assert.Equal(t, lisa.ID, id)

	_, ok = r.NextApprover(requestIn(domainwf.StateApproved))
	assert.False(t, ok)
}

func TestResolver_ReturnTarget(t *testing.T) {
	r := NewResolver(ModeStrict)

	tests := []struct {
		to   domainwf.State
		want int64
	}{
		{domainwf.StateDraft, john.ID},
		{domainwf.StateManagerPending, sarah.ID},
		{domainwf.StateDUPending, lisa.ID},
		{domainwf.StateAdminPending, mike.ID},
		{domainwf.StateManagerSelection, sarah.ID},
	}

	for _, tt := range tests {
		t.Run(tt.to.String(), func(t *testing.T) {
			id, ok := r.ReturnTarget(requestIn(tt.to), tt.to)
			require.True(t, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	m, err = ParseMode("role")
	require.NoError(t, err)
	assert.Equal(t, ModeRole, m)

	_, err = ParseMode("loose")
	assert.Error(t, err)
}
