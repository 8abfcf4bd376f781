package event

// Type identifies the type of domain event.
type Type string

const (
	TypeDocumentSubmitted  Type = "document.submitted"
	TypeDocumentApproved   Type = "document.approved"
	TypeDocumentRejected   Type = "document.rejected"
	TypeDocumentEscalated  Type = "document.escalated"
	TypeDocumentCancelled  Type = "document.cancelled"
	TypeDocumentPaid       Type = "document.paid"
	TypeStatusChanged      Type = "document.status_changed"
	TypeApproverNotified   Type = "approver.notified"
	TypeDocumentGenerated  Type = "document.generated"
)

// String returns the string representation of the event type.
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants.
func (t Type) IsValid() bool {
	switch t {
	case TypeDocumentSubmitted,
		TypeDocumentApproved,
		TypeDocumentRejected,
		TypeDocumentEscalated,
		TypeDocumentCancelled,
		TypeDocumentPaid,
		TypeStatusChanged,
		TypeApproverNotified,
		TypeDocumentGenerated:
		return true
	default:
		return false
	}
}
