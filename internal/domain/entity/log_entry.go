package entity

import (
	"time"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
)

// ApprovalLogEntry is one row of the append-only audit trail. Entries are
// never mutated or deleted, not even when the workflow or delegation that
// produced them is removed.
type ApprovalLogEntry struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Action     approval.Action `json:"action"`
	ActorID    string          `json:"actor_id"`
	// OnBehalfOf holds the delegator's id when the actor acted under a
	// delegation, empty otherwise.
	OnBehalfOf     string    `json:"on_behalf_of,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comment        string    `json:"comment,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
