package event

import (
	"time"

	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/google/uuid"
)

// Event is published after a workflow operation commits
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	RequestID     int64                  `json:"request_id"`
	ActorID       int64                  `json:"actor_id"`
	RequesterID   int64                  `json:"requester_id"`
	From          domainwf.State         `json:"from,omitempty"`
	To            domainwf.State         `json:"to,omitempty"`
	RecipientID   int64                  `json:"recipient_id,omitempty"`
	Comments      string                 `json:"comments,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a domain event with a fresh ID and correlation ID
func NewEvent(eventType Type, requestID, actorID int64) *Event {
	return NewEventWithCorrelation(eventType, requestID, actorID, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to an existing correlation chain
func NewEventWithCorrelation(eventType Type, requestID, actorID int64, correlationID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		RequestID:     requestID,
		ActorID:       actorID,
		Timestamp:     time.Now(),
		CorrelationID: correlationID,
	}
}

// WithPayload returns a copy of the event with key set in its payload
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	c := *e
	c.Payload = newPayload
	return &c
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
