// Package sideeffect holds the handlers launched after a committed status
// transition. Each handler is an independent fire-and-forget task; a failure
// here never affects the committed transition.
package sideeffect

import (
	"context"
	"fmt"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/dispatcher"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/event"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

// Notification template keys.
const (
	TemplateApprovalRequested = "approval_requested"
	TemplateDocumentApproved  = "document_approved"
	TemplateDocumentRejected  = "document_rejected"
	TemplateDocumentPaid      = "document_paid"
	TemplateEscalatedToCEO    = "escalated_to_ceo"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Handlers wires notification and document generation to dispatched events.
type Handlers struct {
	identity  port.IdentityProvider
	authority *delegation.Authority
	notifier  port.NotificationDispatcher
	generator port.DocumentGenerator
	logger    Logger
}

// NewHandlers creates the side-effect handler set.
func NewHandlers(identity port.IdentityProvider, authority *delegation.Authority, notifier port.NotificationDispatcher, generator port.DocumentGenerator, logger Logger) *Handlers {
	return &Handlers{
		identity:  identity,
		authority: authority,
		notifier:  notifier,
		generator: generator,
		logger:    logger,
	}
}

// Register subscribes every handler on the dispatcher.
func (h *Handlers) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeDocumentSubmitted, "notify_next_approver", h.NotifyNextApprover)
	d.Subscribe(event.TypeDocumentApproved, "notify_next_approver", h.NotifyNextApprover)
	d.Subscribe(event.TypeDocumentEscalated, "notify_next_approver", h.NotifyNextApprover)

	d.Subscribe(event.TypeDocumentApproved, "notify_owner", h.NotifyOwner)
	d.Subscribe(event.TypeDocumentRejected, "notify_owner", h.NotifyOwner)
	d.Subscribe(event.TypeDocumentPaid, "notify_owner", h.NotifyOwner)

	d.Subscribe(event.TypeDocumentApproved, "generate_po_form", h.GeneratePOForm)
	d.Subscribe(event.TypeDocumentSubmitted, "generate_po_form", h.GeneratePOForm)
}

// pendingRole maps a pending status to the role expected to act on it.
func pendingRole(status domainwf.State) (approval.Role, bool) {
	switch status {
	case domainwf.StatePendingPMApproval:
		return approval.RolePropertyManager, true
	case domainwf.StatePendingMDApproval:
		return approval.RoleMD, true
	case domainwf.StatePendingCEOApproval:
		return approval.RoleCEO, true
	default:
		return "", false
	}
}

// NotifyNextApprover tells the principals expected to act on the document's
// new status, plus anyone currently holding their authority by delegation.
func (h *Handlers) NotifyNextApprover(ctx context.Context, evt *event.Event) error {
	newStatus := domainwf.State(evt.GetString("new_status"))
	role, ok := pendingRole(newStatus)
	if !ok {
		// Terminal status; nothing is pending.
		return nil
	}

	principals, err := h.identity.PrincipalsByRole(ctx, evt.OrganisationID, role)
	if err != nil {
		return fmt.Errorf("list principals with role %s: %w", role, err)
	}

	scope := approval.ScopeFor(approval.DocumentType(evt.GetString("document_type")))
	recipientIDs := make([]string, 0, len(principals))
	seen := make(map[string]struct{})
	for _, p := range principals {
		if _, dup := seen[p.ID]; !dup && p.IsActive {
			seen[p.ID] = struct{}{}
			recipientIDs = append(recipientIDs, p.ID)
		}
		delegates, err := h.authority.EffectiveApprovers(ctx, p.ID, scope)
		if err != nil {
			h.logger.Error("Failed to resolve delegates", "principal_id", p.ID, "error", err)
			continue
		}
		for _, d := range delegates {
			if _, dup := seen[d.ID]; !dup {
				seen[d.ID] = struct{}{}
				recipientIDs = append(recipientIDs, d.ID)
			}
		}
	}
	if len(recipientIDs) == 0 {
		h.logger.Error("No active principal to notify", "role", role, "document_id", evt.DocumentID)
		return nil
	}

	templateKey := TemplateApprovalRequested
	if evt.GetBool("escalated") {
		templateKey = TemplateEscalatedToCEO
	}
	return h.notifier.Notify(ctx, recipientIDs, templateKey, map[string]interface{}{
		"document_id":   evt.DocumentID,
		"document_type": evt.GetString("document_type"),
		"new_status":    newStatus.String(),
		"amount":        evt.GetString("amount"),
	})
}

// NotifyOwner tells the document owner about a final outcome. Intermediate
// chain advances are not reported to the owner.
func (h *Handlers) NotifyOwner(ctx context.Context, evt *event.Event) error {
	newStatus := domainwf.State(evt.GetString("new_status"))

	var templateKey string
	switch {
	case evt.Type == event.TypeDocumentRejected:
		templateKey = TemplateDocumentRejected
	case evt.Type == event.TypeDocumentPaid:
		templateKey = TemplateDocumentPaid
	case newStatus.IsTerminal(), newStatus == domainwf.StateApprovedForPayment:
		templateKey = TemplateDocumentApproved
	default:
		return nil
	}

	ownerID := evt.GetString("owner_id")
	if ownerID == "" {
		return fmt.Errorf("event %s carries no owner", evt.ID)
	}
	return h.notifier.Notify(ctx, []string{ownerID}, templateKey, map[string]interface{}{
		"document_id":   evt.DocumentID,
		"document_type": evt.GetString("document_type"),
		"new_status":    newStatus.String(),
		"actor_id":      evt.GetString("actor_id"),
	})
}

// GeneratePOForm renders the printable form for a purchase order that reached
// its approved state, including auto-approved submissions.
func (h *Handlers) GeneratePOForm(ctx context.Context, evt *event.Event) error {
	if approval.DocumentType(evt.GetString("document_type")) != approval.DocumentTypePurchaseOrder {
		return nil
	}
	if domainwf.State(evt.GetString("new_status")) != domainwf.StateApproved {
		return nil
	}

	url, err := h.generator.Generate(ctx, evt.DocumentID)
	if err != nil {
		return fmt.Errorf("generate purchase order form: %w", err)
	}
	h.logger.Info("Purchase order form ready", "document_id", evt.DocumentID, "url", url)
	return nil
}
