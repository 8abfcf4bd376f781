// Package orchestrator executes approval actions end to end: guard, committed
// status transition, audit entry, then fire-and-forget side effects.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keystonepm/approvalflow/internal/application/dispatcher"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/application/workflow"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
	"github.com/keystonepm/approvalflow/internal/domain/event"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Result reports a committed action. SideEffects observes the detached
// post-commit tasks; their failures never un-commit the transition.
type Result struct {
	Document    *entity.ApprovableDocument
	Entry       *entity.ApprovalLogEntry
	SideEffects *dispatcher.Outcome
}

// Warnings returns the side-effect failures recorded so far.
func (r *Result) Warnings() []*approval.SideEffectWarning {
	if r.SideEffects == nil {
		return nil
	}
	return r.SideEffects.Warnings()
}

// Orchestrator is the single entry point for document state changes.
type Orchestrator struct {
	docs       port.DocumentRepository
	logs       port.LogRepository
	guard      *workflow.Guard
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator.
func New(docs port.DocumentRepository, logs port.LogRepository, guard *workflow.Guard, d dispatcher.Dispatcher, logger Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docs:       docs,
		logs:       logs,
		guard:      guard,
		dispatcher: d,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Approve validates and applies an approval by the acting principal. The
// transition may finalize the document, advance it to the next chain step,
// or reroute it to the CEO.
func (o *Orchestrator) Approve(ctx context.Context, documentID string, actor *entity.Principal) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	decision, err := o.guard.DecideApprove(ctx, doc, actor)
	if err != nil {
		return nil, err
	}

	fields := port.DocumentFields{}
	if decision.NextStatus.IsTerminal() {
		approverID := actor.ID
		approvedAt := o.now()
		fields.ApproverID = &approverID
		fields.ApprovedAt = &approvedAt
	}

	evtType := event.TypeDocumentApproved
	if decision.Escalated {
		evtType = event.TypeDocumentEscalated
	}
	return o.commit(ctx, doc, actor, decision, fields, evtType)
}

// Reject validates and applies a rejection. The reason is mandatory and is
// stored on the document as well as the audit entry.
func (o *Orchestrator) Reject(ctx context.Context, documentID string, actor *entity.Principal, reason string) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	decision, err := o.guard.DecideReject(ctx, doc, actor, reason)
	if err != nil {
		return nil, err
	}

	fields := port.DocumentFields{RejectionReason: &reason}
	return o.commit(ctx, doc, actor, decision, fields, event.TypeDocumentRejected)
}

// Submit moves a document from its initial status into the approval chain.
// When the resolved chain is empty the submission itself finalizes the
// document with no pending approver.
func (o *Orchestrator) Submit(ctx context.Context, documentID string, actor *entity.Principal) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	decision, err := o.guard.DecideSubmit(ctx, doc, actor)
	if err != nil {
		return nil, err
	}

	submittedAt := o.now()
	fields := port.DocumentFields{SubmittedAt: &submittedAt}
	if decision.NextStatus.IsTerminal() {
		approvedAt := submittedAt
		fields.ApprovedAt = &approvedAt
	}
	return o.commit(ctx, doc, actor, decision, fields, event.TypeDocumentSubmitted)
}

// Resubmit re-enters a REJECTED document into the chain, clearing the stored
// rejection reason. This starts a new approval cycle.
func (o *Orchestrator) Resubmit(ctx context.Context, documentID string, actor *entity.Principal) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	decision, err := o.guard.DecideResubmit(ctx, doc, actor)
	if err != nil {
		return nil, err
	}

	cleared := ""
	submittedAt := o.now()
	fields := port.DocumentFields{RejectionReason: &cleared, SubmittedAt: &submittedAt}
	return o.commit(ctx, doc, actor, decision, fields, event.TypeDocumentSubmitted)
}

// Cancel withdraws a DRAFT or REJECTED document. Owner only.
func (o *Orchestrator) Cancel(ctx context.Context, documentID string, actor *entity.Principal) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}

	decision, err := o.guard.DecideCancel(doc, actor)
	if err != nil {
		return nil, err
	}
	return o.commit(ctx, doc, actor, decision, port.DocumentFields{}, event.TypeDocumentCancelled)
}

// MatchInvoice links an uploaded invoice to its purchase order. An amount
// mismatch requires a non-empty explanatory note.
func (o *Orchestrator) MatchInvoice(ctx context.Context, invoiceID, poID string, actor *entity.Principal, note string) (*Result, error) {
	if actor.Role != approval.RoleAccounts && actor.Role != approval.RoleAdmin {
		return nil, approval.NewPermissionError(actor.ID, "only ACCOUNTS may match invoices")
	}

	inv, err := o.docs.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}
	if inv.Type != approval.DocumentTypeInvoice {
		return nil, approval.NewValidationError("document_id", "document is not an invoice")
	}
	if domainwf.State(inv.Status) != domainwf.StateUploaded {
		return nil, approval.NewValidationError("status", fmt.Sprintf("invoice in status %s cannot be matched", inv.Status))
	}

	po, err := o.docs.GetByID(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("load purchase order %s: %w", poID, err)
	}
	if po.Type != approval.DocumentTypePurchaseOrder {
		return nil, approval.NewValidationError("po_id", "matched document is not a purchase order")
	}
	if !inv.Amount.Equal(po.Amount) && note == "" {
		return nil, approval.NewValidationError("note", "amount mismatch against the purchase order requires an explanatory note")
	}

	decision := &workflow.Decision{
		Trigger:    domainwf.TriggerMatch,
		FromStatus: domainwf.StateUploaded,
		NextStatus: domainwf.StateMatched,
		Action:     approval.ActionMatched,
		Comment:    note,
	}
	fields := port.DocumentFields{MatchedPOID: &poID}
	if note != "" {
		fields.MismatchNote = &note
	}
	return o.commit(ctx, inv, actor, decision, fields, event.TypeStatusChanged)
}

// MarkPaid records payment of an invoice approved for payment.
func (o *Orchestrator) MarkPaid(ctx context.Context, invoiceID string, actor *entity.Principal) (*Result, error) {
	doc, err := o.docs.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}

	decision, err := o.guard.DecidePay(doc, actor)
	if err != nil {
		return nil, err
	}
	return o.commit(ctx, doc, actor, decision, port.DocumentFields{}, event.TypeDocumentPaid)
}

// commit applies a validated decision: the conditional status write, the
// audit entry, then detached side effects. The write is conditioned on the
// status read at the start of the call; a lost race yields ConflictError and
// no audit entry.
func (o *Orchestrator) commit(ctx context.Context, doc *entity.ApprovableDocument, actor *entity.Principal, decision *workflow.Decision, fields port.DocumentFields, evtType event.Type) (*Result, error) {
	ok, err := o.docs.ConditionalUpdateStatus(ctx, doc.ID, decision.FromStatus.String(), decision.NextStatus.String(), fields)
	if err != nil {
		return nil, fmt.Errorf("update status of %s: %w", doc.ID, err)
	}
	if !ok {
		return nil, approval.NewConflictError("document", fmt.Sprintf("document %s is no longer in status %s", doc.ID, decision.FromStatus))
	}

	entry := &entity.ApprovalLogEntry{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		Action:         decision.Action,
		ActorID:        actor.ID,
		OnBehalfOf:     decision.OnBehalfOf,
		PreviousStatus: decision.FromStatus.String(),
		NewStatus:      decision.NextStatus.String(),
		Comment:        decision.Comment,
		Timestamp:      o.now(),
	}
	if err := o.logs.Append(ctx, entry); err != nil {
		// The transition is committed; a failed audit append is surfaced to
		// the caller rather than rolled back.
		return nil, fmt.Errorf("append audit entry for %s: %w", doc.ID, err)
	}

	doc.Status = decision.NextStatus.String()
	applyFields(doc, fields)

	o.logger.Info("Transition committed",
		"document_id", doc.ID,
		"action", decision.Action,
		"actor_id", actor.ID,
		"from", decision.FromStatus,
		"to", decision.NextStatus,
		"on_behalf_of", decision.OnBehalfOf,
	)

	evt := event.New(evtType, doc.ID, doc.OrganisationID, map[string]interface{}{
		"document_type":   doc.Type.String(),
		"previous_status": decision.FromStatus.String(),
		"new_status":      decision.NextStatus.String(),
		"action":          decision.Action.String(),
		"actor_id":        actor.ID,
		"owner_id":        doc.OwnerID,
		"amount":          doc.Amount.String(),
		"escalated":       decision.Escalated,
	})
	outcome := o.dispatcher.DispatchAsync(ctx, evt)

	return &Result{Document: doc, Entry: entry, SideEffects: outcome}, nil
}

func applyFields(doc *entity.ApprovableDocument, fields port.DocumentFields) {
	if fields.ApproverID != nil {
		doc.ApproverID = *fields.ApproverID
	}
	if fields.RejectionReason != nil {
		doc.RejectionReason = *fields.RejectionReason
	}
	if fields.MatchedPOID != nil {
		doc.MatchedPOID = *fields.MatchedPOID
	}
	if fields.MismatchNote != nil {
		doc.MismatchNote = *fields.MismatchNote
	}
	if fields.SubmittedAt != nil {
		doc.SubmittedAt = fields.SubmittedAt
	}
	if fields.ApprovedAt != nil {
		doc.ApprovedAt = fields.ApprovedAt
	}
}
