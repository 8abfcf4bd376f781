package workflow

import (
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

// BuildPurchaseOrderStateMachine creates a state machine configured with the
// purchase order status graph.
func BuildPurchaseOrderStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingPMApproval).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerAutoApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	builder.Configure(domainwf.StatePendingPMApproval).
		Permit(domainwf.TriggerApprove, domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerApprove, domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerApprove, domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerEscalate, domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingPMApproval).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingCEOApproval).
		Permit(domainwf.TriggerAutoApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// APPROVED and CANCELLED are terminal.

	return builder.Build(initialState)
}

// BuildInvoiceStateMachine creates a state machine configured with the
// supplier invoice status graph.
func BuildInvoiceStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateUploaded).
		Permit(domainwf.TriggerMatch, domainwf.StateMatched)

	builder.Configure(domainwf.StateMatched).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerAutoApprove, domainwf.StateApprovedForPayment)

	builder.Configure(domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerApprove, domainwf.StateApprovedForPayment).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateApprovedForPayment).
		Permit(domainwf.TriggerPay, domainwf.StatePaid)

	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerResubmit, domainwf.StatePendingMDApproval).
		Permit(domainwf.TriggerAutoApprove, domainwf.StateApprovedForPayment)

	// PAID is terminal.

	return builder.Build(initialState)
}

// BuildStateMachine selects the graph for a document type.
func BuildStateMachine(docType approval.DocumentType, initialState domainwf.State) domainwf.StateMachine {
	if docType == approval.DocumentTypeInvoice {
		return BuildInvoiceStateMachine(initialState)
	}
	return BuildPurchaseOrderStateMachine(initialState)
}
