package workflow

// State represents a document status in the approval lifecycle.
type State string

// Purchase order states.
const (
	StateDraft              State = "DRAFT"
	StatePendingPMApproval  State = "PENDING_PM_APPROVAL"
	StatePendingMDApproval  State = "PENDING_MD_APPROVAL"
	StatePendingCEOApproval State = "PENDING_CEO_APPROVAL"
	StateApproved           State = "APPROVED"
	StateRejected           State = "REJECTED"
	StateCancelled          State = "CANCELLED"
)

// Invoice states. PENDING_MD_APPROVAL and REJECTED are shared with the
// purchase order graph.
const (
	StateUploaded           State = "UPLOADED"
	StateMatched            State = "MATCHED"
	StateApprovedForPayment State = "APPROVED_FOR_PAYMENT"
	StatePaid               State = "PAID"
)

var validStates = map[State]bool{
	StateDraft:              true,
	StatePendingPMApproval:  true,
	StatePendingMDApproval:  true,
	StatePendingCEOApproval: true,
	StateApproved:           true,
	StateRejected:           true,
	StateCancelled:          true,
	StateUploaded:           true,
	StateMatched:            true,
	StateApprovedForPayment: true,
	StatePaid:               true,
}

// REJECTED is not listed here: it admits the explicit resubmission
// transition back into the pending chain.
var terminalStates = map[State]bool{
	StateApproved:  true,
	StateCancelled: true,
	StatePaid:      true,
}

var pendingStates = map[State]bool{
	StatePendingPMApproval:  true,
	StatePendingMDApproval:  true,
	StatePendingCEOApproval: true,
}

// IsValid returns true if the state is a valid document status.
func (s State) IsValid() bool {
	return validStates[s]
}

// IsTerminal returns true if the state admits no further transitions.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsPending returns true if the state is awaiting an approver's action.
func (s State) IsPending() bool {
	return pendingStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
