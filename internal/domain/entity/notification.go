package entity

import "time"

// Notification status constants.
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification is an outbox row recording one attempt to tell a recipient
// about a document awaiting their action or a final outcome.
type Notification struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	RecipientID string    `json:"recipient_id"`
	TemplateKey string    `json:"template_key"`
	Payload     string    `json:"payload"`
	Status      string    `json:"status"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}
