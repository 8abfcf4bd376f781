package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
)

// ApprovableDocument is a purchase order or supplier invoice routed through
// an approval chain. Status is mutated only through orchestrator-validated
// transitions.
type ApprovableDocument struct {
	ID              string                `json:"id"`
	OrganisationID  string                `json:"organisation_id"`
	Type            approval.DocumentType `json:"type"`
	Reference       string                `json:"reference"`
	Description     string                `json:"description,omitempty"`
	Amount          decimal.Decimal       `json:"amount"`
	Status          string                `json:"status"`
	OwnerID         string                `json:"owner_id"`
	ApproverID      string                `json:"approver_id,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	// MatchedPOID links an invoice to the purchase order it was matched
	// against. Empty for purchase orders.
	MatchedPOID  string     `json:"matched_po_id,omitempty"`
	MismatchNote string     `json:"mismatch_note,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsOwner reports whether the given user created the document.
func (d *ApprovableDocument) IsOwner(userID string) bool {
	return d.OwnerID == userID
}
