package workflow

import (
	"context"
	"fmt"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/application/resolver"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

// Decision is the outcome of a successful guard evaluation: the transition
// to apply and how to record it in the audit trail.
type Decision struct {
	Trigger    domainwf.Trigger
	FromStatus domainwf.State
	NextStatus domainwf.State
	Action     approval.Action
	Comment    string
	// OnBehalfOf is the delegator's id when the actor acts under delegation.
	OnBehalfOf string
	// Escalated is set when an MD-level approval was rerouted to the CEO
	// instead of finalizing.
	Escalated bool
}

// Guard validates a requested transition against the document's current
// status, the applicable approval chain, and the acting principal's direct
// or delegated authority.
type Guard struct {
	resolver  *resolver.Resolver
	authority *delegation.Authority
	settings  port.SettingsRepository
}

// NewGuard creates a transition guard.
func NewGuard(res *resolver.Resolver, authority *delegation.Authority, settings port.SettingsRepository) *Guard {
	return &Guard{resolver: res, authority: authority, settings: settings}
}

// requiredRoleFor maps a pending status to the role that must act on it.
func requiredRoleFor(status domainwf.State) (approval.Role, error) {
	switch status {
	case domainwf.StatePendingPMApproval:
		return approval.RolePropertyManager, nil
	case domainwf.StatePendingMDApproval:
		return approval.RoleMD, nil
	case domainwf.StatePendingCEOApproval:
		return approval.RoleCEO, nil
	default:
		return "", approval.NewValidationError("status", fmt.Sprintf("no approver acts on status %s", status))
	}
}

// statusForRole maps an approval-chain role to the pending status that
// awaits it. Only chain roles have pending statuses.
func statusForRole(role approval.Role) (domainwf.State, error) {
	switch role {
	case approval.RolePropertyManager:
		return domainwf.StatePendingPMApproval, nil
	case approval.RoleMD:
		return domainwf.StatePendingMDApproval, nil
	case approval.RoleCEO:
		return domainwf.StatePendingCEOApproval, nil
	default:
		return "", approval.NewConfigurationError(fmt.Sprintf("role %s cannot appear in an approval chain", role))
	}
}

// authorize checks the acting principal against the role required by the
// document's current status. It returns the delegator id when authority is
// delegated. The role switch is exhaustive over the closed Role set.
func (g *Guard) authorize(ctx context.Context, actor *entity.Principal, required approval.Role, scope approval.Scope) (string, error) {
	if !actor.IsActive {
		return "", approval.NewPermissionError(actor.ID, "principal is not active")
	}

	// Sequential enforcement: a CEO acts only on PENDING_CEO_APPROVAL. No
	// role skips ahead in the chain, and delegation never reaches a CEO.
	if actor.Role == approval.RoleCEO && required != approval.RoleCEO {
		return "", approval.NewPermissionError(actor.ID, fmt.Sprintf("a CEO may not act on a step requiring %s", required))
	}

	if actor.Role == required {
		return "", nil
	}

	switch actor.Role {
	case approval.RoleAdmin:
		// ADMIN carries PM/MD-equivalent authority but never CEO authority.
		if required == approval.RoleCEO {
			return "", approval.NewPermissionError(actor.ID, "an ADMIN may not act on a CEO approval step")
		}
		return "", nil
	case approval.RolePropertyManager, approval.RoleMD, approval.RoleAccounts:
		if required == approval.RoleMD {
			delegator, err := g.authority.ActiveDelegatorFor(ctx, actor.ID, scope)
			if err != nil {
				return "", err
			}
			if delegator != "" {
				return delegator, nil
			}
		}
		return "", approval.NewPermissionError(actor.ID, fmt.Sprintf("role %s does not satisfy required role %s", actor.Role, required))
	case approval.RoleCEO:
		// required == CEO is handled by the equality check above.
		return "", approval.NewPermissionError(actor.ID, fmt.Sprintf("role %s does not satisfy required role %s", actor.Role, required))
	default:
		return "", approval.NewPermissionError(actor.ID, fmt.Sprintf("unknown role %s", actor.Role))
	}
}

// DecideApprove evaluates an approve request and returns the transition to
// apply. No state is mutated here.
func (g *Guard) DecideApprove(ctx context.Context, doc *entity.ApprovableDocument, actor *entity.Principal) (*Decision, error) {
	current := domainwf.State(doc.Status)
	if !current.IsPending() {
		return nil, approval.NewValidationError("status", fmt.Sprintf("document in status %s cannot be approved", doc.Status))
	}

	required, err := requiredRoleFor(current)
	if err != nil {
		return nil, err
	}

	scope := approval.ScopeFor(doc.Type)
	onBehalfOf, err := g.authorize(ctx, actor, required, scope)
	if err != nil {
		return nil, err
	}

	settings, err := g.settings.GetByOrganisation(ctx, doc.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	decision := &Decision{
		Trigger:    domainwf.TriggerApprove,
		FromStatus: current,
		Action:     approval.ActionApproved,
		OnBehalfOf: onBehalfOf,
	}

	// CEO escalation: an MD-level approval of a purchase order above the
	// threshold reroutes to the CEO instead of finalizing. This fires even
	// when the custom chain carries its own CEO step; see DESIGN.md.
	if doc.Type == approval.DocumentTypePurchaseOrder &&
		current == domainwf.StatePendingMDApproval &&
		actor.Role != approval.RoleCEO &&
		settings != nil && settings.UseCustomWorkflows &&
		doc.Amount.GreaterThan(settings.CEOThreshold()) {
		decision.Trigger = domainwf.TriggerEscalate
		decision.NextStatus = domainwf.StatePendingCEOApproval
		decision.Comment = "routed to CEO"
		decision.Escalated = true
	} else {
		next, err := g.nextStatus(ctx, doc, required)
		if err != nil {
			return nil, err
		}
		decision.NextStatus = next
	}

	machine := BuildStateMachine(doc.Type, current)
	if !machine.CanMoveTo(decision.Trigger, decision.NextStatus) {
		return nil, fmt.Errorf("%w: %s from %s to %s", domainwf.ErrInvalidTransition, decision.Trigger, current, decision.NextStatus)
	}
	return decision, nil
}

// nextStatus walks the applicable chain past the step the current status
// corresponds to and returns the pending status of the next remaining step,
// or the terminal success state when the chain is exhausted.
func (g *Guard) nextStatus(ctx context.Context, doc *entity.ApprovableDocument, currentRole approval.Role) (domainwf.State, error) {
	if doc.Type == approval.DocumentTypeInvoice {
		// The invoice chain ends at the MD; payment approval is final.
		return domainwf.StateApprovedForPayment, nil
	}

	// The CEO is always the final approver, whether the chain named a CEO
	// step or the document was escalated onto one.
	if currentRole == approval.RoleCEO {
		return domainwf.StateApproved, nil
	}

	steps, err := g.resolver.ApplicableSteps(ctx, doc.OrganisationID, doc.Amount, doc.Type)
	if err != nil {
		return "", err
	}

	idx := -1
	for i, step := range steps {
		if step.Role == currentRole {
			idx = i
			break
		}
	}
	if idx == -1 {
		// The acting role is absent from the resolved chain (escalation or a
		// settings change since submission). The chain is exhausted for this
		// actor; walking from the head would move the document backwards.
		return domainwf.StateApproved, nil
	}
	for i := idx + 1; i < len(steps); i++ {
		next, err := statusForRole(steps[i].Role)
		if err != nil {
			return "", err
		}
		if next != "" {
			return next, nil
		}
	}
	return domainwf.StateApproved, nil
}

// DecideReject evaluates a reject request. A non-empty reason is always
// required; authorization matches the approve path.
func (g *Guard) DecideReject(ctx context.Context, doc *entity.ApprovableDocument, actor *entity.Principal, reason string) (*Decision, error) {
	if reason == "" {
		return nil, approval.NewValidationError("reason", "rejection requires a reason")
	}

	current := domainwf.State(doc.Status)
	if !current.IsPending() {
		return nil, approval.NewValidationError("status", fmt.Sprintf("document in status %s cannot be rejected", doc.Status))
	}

	required, err := requiredRoleFor(current)
	if err != nil {
		return nil, err
	}
	onBehalfOf, err := g.authorize(ctx, actor, required, approval.ScopeFor(doc.Type))
	if err != nil {
		return nil, err
	}

	machine := BuildStateMachine(doc.Type, current)
	if !machine.CanMoveTo(domainwf.TriggerReject, domainwf.StateRejected) {
		return nil, fmt.Errorf("%w: REJECT from %s", domainwf.ErrInvalidTransition, current)
	}

	return &Decision{
		Trigger:    domainwf.TriggerReject,
		FromStatus: current,
		NextStatus: domainwf.StateRejected,
		Action:     approval.ActionRejected,
		Comment:    reason,
		OnBehalfOf: onBehalfOf,
	}, nil
}

// DecideSubmit evaluates entry into the approval chain from DRAFT (purchase
// orders) or MATCHED (invoices). An empty resolved chain finalizes the
// document immediately.
func (g *Guard) DecideSubmit(ctx context.Context, doc *entity.ApprovableDocument, actor *entity.Principal) (*Decision, error) {
	if !doc.IsOwner(actor.ID) && actor.Role != approval.RoleAdmin {
		return nil, approval.NewPermissionError(actor.ID, "only the document owner may submit it")
	}
	if doc.Amount.Sign() <= 0 {
		return nil, approval.NewValidationError("amount", "amount must be positive")
	}

	current := domainwf.State(doc.Status)
	steps, err := g.resolver.ApplicableSteps(ctx, doc.OrganisationID, doc.Amount, doc.Type)
	if err != nil {
		return nil, err
	}

	decision := &Decision{FromStatus: current, Action: approval.ActionSentForApproval}
	if len(steps) == 0 {
		decision.Trigger = domainwf.TriggerAutoApprove
		decision.Action = approval.ActionAutoApproved
		if doc.Type == approval.DocumentTypeInvoice {
			decision.NextStatus = domainwf.StateApprovedForPayment
		} else {
			decision.NextStatus = domainwf.StateApproved
		}
	} else {
		first, err := statusForRole(steps[0].Role)
		if err != nil {
			return nil, err
		}
		decision.Trigger = domainwf.TriggerSubmit
		decision.NextStatus = first
	}

	machine := BuildStateMachine(doc.Type, current)
	if !machine.CanMoveTo(decision.Trigger, decision.NextStatus) {
		return nil, fmt.Errorf("%w: %s from %s to %s", domainwf.ErrInvalidTransition, decision.Trigger, current, decision.NextStatus)
	}
	return decision, nil
}

// DecideResubmit evaluates re-entry of a REJECTED document into the chain.
// The rejection reason is cleared and a fresh approval cycle begins at the
// first applicable step.
func (g *Guard) DecideResubmit(ctx context.Context, doc *entity.ApprovableDocument, actor *entity.Principal) (*Decision, error) {
	if domainwf.State(doc.Status) != domainwf.StateRejected {
		return nil, approval.NewValidationError("status", fmt.Sprintf("only REJECTED documents can be resubmitted, got %s", doc.Status))
	}
	if !doc.IsOwner(actor.ID) {
		return nil, approval.NewPermissionError(actor.ID, "only the document owner may resubmit it")
	}

	steps, err := g.resolver.ApplicableSteps(ctx, doc.OrganisationID, doc.Amount, doc.Type)
	if err != nil {
		return nil, err
	}

	decision := &Decision{FromStatus: domainwf.StateRejected, Action: approval.ActionResubmitted}
	if len(steps) == 0 {
		decision.Trigger = domainwf.TriggerAutoApprove
		if doc.Type == approval.DocumentTypeInvoice {
			decision.NextStatus = domainwf.StateApprovedForPayment
		} else {
			decision.NextStatus = domainwf.StateApproved
		}
	} else {
		first, err := statusForRole(steps[0].Role)
		if err != nil {
			return nil, err
		}
		decision.Trigger = domainwf.TriggerResubmit
		decision.NextStatus = first
	}

	machine := BuildStateMachine(doc.Type, domainwf.StateRejected)
	if !machine.CanMoveTo(decision.Trigger, decision.NextStatus) {
		return nil, fmt.Errorf("%w: %s from REJECTED to %s", domainwf.ErrInvalidTransition, decision.Trigger, decision.NextStatus)
	}
	return decision, nil
}

// DecideCancel evaluates cancellation, allowed to the owner from DRAFT or
// REJECTED only.
func (g *Guard) DecideCancel(doc *entity.ApprovableDocument, actor *entity.Principal) (*Decision, error) {
	if !doc.IsOwner(actor.ID) {
		return nil, approval.NewPermissionError(actor.ID, "only the document owner may cancel it")
	}

	current := domainwf.State(doc.Status)
	machine := BuildStateMachine(doc.Type, current)
	if !machine.CanMoveTo(domainwf.TriggerCancel, domainwf.StateCancelled) {
		return nil, approval.NewValidationError("status", fmt.Sprintf("document in status %s cannot be cancelled", doc.Status))
	}

	return &Decision{
		Trigger:    domainwf.TriggerCancel,
		FromStatus: current,
		NextStatus: domainwf.StateCancelled,
		Action:     approval.ActionCancelled,
	}, nil
}

// DecidePay evaluates marking an invoice as paid, allowed to ACCOUNTS and
// ADMIN from APPROVED_FOR_PAYMENT.
func (g *Guard) DecidePay(doc *entity.ApprovableDocument, actor *entity.Principal) (*Decision, error) {
	if doc.Type != approval.DocumentTypeInvoice {
		return nil, approval.NewValidationError("type", "only invoices can be marked paid")
	}
	if actor.Role != approval.RoleAccounts && actor.Role != approval.RoleAdmin {
		return nil, approval.NewPermissionError(actor.ID, "only ACCOUNTS may mark an invoice paid")
	}

	current := domainwf.State(doc.Status)
	machine := BuildInvoiceStateMachine(current)
	if !machine.CanMoveTo(domainwf.TriggerPay, domainwf.StatePaid) {
		return nil, approval.NewValidationError("status", fmt.Sprintf("invoice in status %s cannot be marked paid", doc.Status))
	}

	return &Decision{
		Trigger:    domainwf.TriggerPay,
		FromStatus: current,
		NextStatus: domainwf.StatePaid,
		Action:     approval.ActionPaid,
	}, nil
}
