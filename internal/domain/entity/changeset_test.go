package entity

import (
	"encoding/json"
	"testing"
	"time"

	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionEntry_JSONKeepsConcreteChangeset(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	history := []VersionEntry{
		{Timestamp: at, UserID: 1, Changeset: CreateChange{}},
		{Timestamp: at, UserID: 1, Changeset: SubmitChange{}},
		{Timestamp: at, UserID: 2, Changeset: ReturnChange{From: domainwf.StateManagerPending, To: domainwf.StateDraft, Comments: "add purpose"}},
		{Timestamp: at, UserID: 2, Changeset: SelectTicketChange{TicketOptionID: 7}},
		{Timestamp: at, UserID: 1, Changeset: EditChange{Fields: []string{"purpose"}}},
	}

	data, err := json.Marshal(history)
	require.NoError(t, err)

	var decoded []VersionEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(history))

	assert.Equal(t, history, decoded)
	assert.Contains(t, string(data), `"type":"select_ticket"`)
	assert.Contains(t, string(data), `"details":"Returned from manager_pending to draft"`)
}

func TestVersionEntry_UnknownTypeFails(t *testing.T) {
	var entry VersionEntry
	err := json.Unmarshal([]byte(`{"type":"archive","user_id":1}`), &entry)
	assert.Error(t, err)
}

func TestVersionEntry_NilChangesetFails(t *testing.T) {
	_, err := json.Marshal(VersionEntry{UserID: 1})
	assert.Error(t, err)
}

func TestApprovalChain_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chain   ApprovalChain
		wantErr bool
	}{
		{"full chain", ApprovalChain{{RoleManager, 2}, {RoleDUHead, 4}, {RoleAdmin, 3}}, false},
		{"empty chain", nil, true},
		{"missing admin", ApprovalChain{{RoleManager, 2}, {RoleDUHead, 4}}, true},
		{"manager only", ApprovalChain{{RoleManager, 2}}, true},
		{"duplicate role", ApprovalChain{{RoleManager, 2}, {RoleManager, 6}}, true},
		{"employee is not a reviewing role", ApprovalChain{{RoleEmployee, 1}}, true},
		{"missing user", ApprovalChain{{RoleManager, 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chain.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTravelDetails_Validate(t *testing.T) {
	start := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	valid := TravelDetails{Source: "Berlin", Destination: "Lisbon", StartDate: start, EndDate: start.AddDate(0, 0, 4)}

	tests := []struct {
		name   string
		mutate func(d *TravelDetails)
		field  string
	}{
		{"valid", func(d *TravelDetails) {}, ""},
		{"same day trip", func(d *TravelDetails) { d.EndDate = d.StartDate }, ""},
		{"no source", func(d *TravelDetails) { d.Source = "" }, "TravelDetails.Source"},
		{"no destination", func(d *TravelDetails) { d.Destination = "" }, "TravelDetails.Destination"},
		{"no start date", func(d *TravelDetails) { d.StartDate = time.Time{} }, "TravelDetails.StartDate"},
		{"ends before it starts", func(d *TravelDetails) { d.EndDate = start.AddDate(0, 0, -1) }, "TravelDetails.EndDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestApprovalChain_UserFor(t *testing.T) {
	chain := ApprovalChain{{RoleManager, 2}, {RoleDUHead, 4}}

	id, ok := chain.UserFor(RoleDUHead)
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)

	_, ok = chain.UserFor(RoleAdmin)
	assert.False(t, ok)
}

func TestTravelRequest_CloneIsDeep(t *testing.T) {
	ticket := int64(9)
	req := &TravelRequest{
		ID:               1,
		ApprovalChain:    ApprovalChain{{RoleManager, 2}},
		SelectedTicketID: &ticket,
		VersionHistory:   []VersionEntry{{UserID: 1, Changeset: CreateChange{}}},
	}

	clone := req.Clone()
	clone.ApprovalChain[0].UserID = 99
	*clone.SelectedTicketID = 10
	clone.Record(time.Now(), 1, SubmitChange{})

	assert.Equal(t, int64(2), req.ApprovalChain[0].UserID)
	assert.Equal(t, int64(9), *req.SelectedTicketID)
	assert.Len(t, req.VersionHistory, 1)
	assert.Len(t, clone.VersionHistory, 2)
}
