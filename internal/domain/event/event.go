package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event published after a committed status transition.
type Event struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	DocumentID     string                 `json:"document_id"`
	OrganisationID string                 `json:"organisation_id"`
	Payload        map[string]interface{} `json:"payload"`
	Timestamp      time.Time              `json:"timestamp"`
	CorrelationID  string                 `json:"correlation_id"`
}

// New creates a domain event with a generated ID and timestamp.
func New(eventType Type, documentID, organisationID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		DocumentID:     documentID,
		OrganisationID: organisationID,
		Payload:        payload,
		Timestamp:      time.Now(),
		CorrelationID:  uuid.NewString(),
	}
}

// NewWithCorrelation creates an event linked to an existing correlation chain.
func NewWithCorrelation(eventType Type, documentID, organisationID string, payload map[string]interface{}, correlationID string) *Event {
	e := New(eventType, documentID, organisationID, payload)
	e.CorrelationID = correlationID
	return e
}

// GetString retrieves a string value from the payload.
func (e *Event) GetString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// GetBool retrieves a bool value from the payload.
func (e *Event) GetBool(key string) bool {
	if v, ok := e.Payload[key].(bool); ok {
		return v
	}
	return false
}
