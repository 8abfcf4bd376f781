package approval

import "github.com/shopspring/decimal"

// DocumentType distinguishes the two approvable document kinds.
// Exactly one workflow type applies to a document.
type DocumentType string

const (
	DocumentTypePurchaseOrder DocumentType = "PO"
	DocumentTypeInvoice       DocumentType = "INVOICE"
)

// IsValid returns true if the document type is one of the defined constants.
func (t DocumentType) IsValid() bool {
	return t == DocumentTypePurchaseOrder || t == DocumentTypeInvoice
}

// String returns the string representation of the document type.
func (t DocumentType) String() string {
	return string(t)
}

// Scope identifies which signing authority a delegation grants.
type Scope string

const (
	ScopePOApproval      Scope = "PO_APPROVAL"
	ScopeInvoiceApproval Scope = "INVOICE_APPROVAL"
)

// ScopeFor returns the delegation scope that governs a document type.
func ScopeFor(t DocumentType) Scope {
	if t == DocumentTypeInvoice {
		return ScopeInvoiceApproval
	}
	return ScopePOApproval
}

// Action identifies an entry in the append-only approval log.
type Action string

const (
	ActionSentForApproval Action = "SENT_FOR_APPROVAL"
	ActionApproved        Action = "APPROVED"
	ActionRejected        Action = "REJECTED"
	ActionCancelled       Action = "CANCELLED"
	ActionResubmitted     Action = "RESUBMITTED"
	ActionAutoApproved    Action = "AUTO_APPROVED"
	ActionMatched         Action = "MATCHED"
	ActionPaid            Action = "PAID"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// DefaultCEOThreshold is the amount above which purchase-order approvals
// escalate to the CEO when an organisation has not configured
// require_ceo_above_amount explicitly.
var DefaultCEOThreshold = decimal.NewFromInt(15000)
