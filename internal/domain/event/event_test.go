package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypeRequestSubmitted, true},
		{"approved", TypeRequestApproved, true},
		{"ticket selected", TypeTicketSelected, true},
		{"closed", TypeRequestClosed, true},
		{"ticket option added", TypeTicketOptionAdded, true},
		{"unknown", Type("request.archived"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeRequestApproved, 12, 4)

	if _, err := uuid.Parse(event.ID); err != nil {
		t.Errorf("Event ID %q is not a uuid: %v", event.ID, err)
	}
	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Errorf("Event CorrelationID = %q, want a distinct id", event.CorrelationID)
	}
	if event.RequestID != 12 || event.ActorID != 4 {
		t.Errorf("Event = %+v, want request 12 actor 4", event)
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	event := NewEventWithCorrelation(TypeRequestClosed, 7, 3, "corr-1")

	if event.CorrelationID != "corr-1" {
		t.Errorf("Event CorrelationID = %v, want corr-1", event.CorrelationID)
	}
	if event.Type != TypeRequestClosed {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeRequestClosed)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeTicketSelected, 1, 2).WithPayload("ticket_option_id", int64(9))
	modified := original.WithPayload("carrier_rating", 4)

	if _, exists := original.Payload["carrier_rating"]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.GetPayloadInt("ticket_option_id") != 9 {
		t.Error("Modified event should retain original payload")
	}
	if modified.GetPayloadInt("carrier_rating") != 4 {
		t.Error("Modified event should have new payload")
	}
	if modified.ID != original.ID || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep its identity")
	}
}

func TestEvent_GetPayloadInt(t *testing.T) {
	event := NewEvent(TypeRequestCreated, 1, 1).
		WithPayload("int64", int64(100)).
		WithPayload("int", 50).
		WithPayload("float64", 75.5).
		WithPayload("string", "not a number")

	tests := []struct {
		key  string
		want int64
	}{
		{"int64", 100},
		{"int", 50},
		{"float64", 75},
		{"string", 0},
		{"nonexistent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := event.GetPayloadInt(tt.key); got != tt.want {
				t.Errorf("GetPayloadInt(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
