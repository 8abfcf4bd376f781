package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/resolver"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type stubSettingsRepo struct {
	settings *entity.WorkflowSettings
}

func (s *stubSettingsRepo) GetByOrganisation(ctx context.Context, orgID string) (*entity.WorkflowSettings, error) {
	return s.settings, nil
}

func (s *stubSettingsRepo) Save(ctx context.Context, settings *entity.WorkflowSettings) error {
	s.settings = settings
	return nil
}

type stubWorkflowRepo struct {
	workflow *entity.ApprovalWorkflow
}

func (s *stubWorkflowRepo) Create(ctx context.Context, wf *entity.ApprovalWorkflow) error { return nil }
func (s *stubWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalWorkflow, error) {
	return s.workflow, nil
}
func (s *stubWorkflowRepo) GetActiveDefault(ctx context.Context, orgID string, docType approval.DocumentType) (*entity.ApprovalWorkflow, error) {
	return s.workflow, nil
}
func (s *stubWorkflowRepo) ListByOrganisation(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error) {
	return nil, nil
}
func (s *stubWorkflowRepo) Update(ctx context.Context, wf *entity.ApprovalWorkflow) error { return nil }
func (s *stubWorkflowRepo) Delete(ctx context.Context, id string) error                   { return nil }
func (s *stubWorkflowRepo) ClearDefault(ctx context.Context, orgID string, docType approval.DocumentType) error {
	return nil
}

type stubDelegationRepo struct {
	delegations []*entity.ApprovalDelegation
}

func (s *stubDelegationRepo) Create(ctx context.Context, d *entity.ApprovalDelegation) error {
	s.delegations = append(s.delegations, d)
	return nil
}
func (s *stubDelegationRepo) GetByPair(ctx context.Context, delegatorID, delegateID string) (*entity.ApprovalDelegation, error) {
	return nil, nil
}
func (s *stubDelegationRepo) ListByDelegator(ctx context.Context, delegatorID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	var out []*entity.ApprovalDelegation
	for _, d := range s.delegations {
		if d.DelegatorID == delegatorID && d.Scope == scope {
			out = append(out, d)
		}
	}
	return out, nil
}
func (s *stubDelegationRepo) ListByDelegate(ctx context.Context, delegateID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	var out []*entity.ApprovalDelegation
	for _, d := range s.delegations {
		if d.DelegateID == delegateID && d.Scope == scope {
			out = append(out, d)
		}
	}
	return out, nil
}
func (s *stubDelegationRepo) Deactivate(ctx context.Context, id string) error { return nil }

type stubPrincipalRepo struct {
	principals map[string]*entity.Principal
}

func (s *stubPrincipalRepo) GetByID(ctx context.Context, id string) (*entity.Principal, error) {
	return s.principals[id], nil
}
func (s *stubPrincipalRepo) ListByRole(ctx context.Context, orgID string, role approval.Role) ([]*entity.Principal, error) {
	return nil, nil
}

type guardFixture struct {
	guard       *Guard
	settings    *stubSettingsRepo
	workflows   *stubWorkflowRepo
	delegations *stubDelegationRepo
}

func newGuardFixture(settings *entity.WorkflowSettings, wf *entity.ApprovalWorkflow) *guardFixture {
	settingsRepo := &stubSettingsRepo{settings: settings}
	workflowRepo := &stubWorkflowRepo{workflow: wf}
	delegationRepo := &stubDelegationRepo{}
	principalRepo := &stubPrincipalRepo{principals: map[string]*entity.Principal{}}

	res := resolver.New(settingsRepo, workflowRepo)
	authority := delegation.NewAuthority(delegationRepo, principalRepo, nopLogger{})
	return &guardFixture{
		guard:       NewGuard(res, authority, settingsRepo),
		settings:    settingsRepo,
		workflows:   workflowRepo,
		delegations: delegationRepo,
	}
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func thresholdSettings() *entity.WorkflowSettings {
	return &entity.WorkflowSettings{
		OrganisationID:         "org-1",
		UseCustomWorkflows:     false,
		AutoApproveBelowAmount: decPtr("500"),
		RequireCEOAboveAmount:  decPtr("10000"),
	}
}

func poDoc(status domainwf.State, amount string) *entity.ApprovableDocument {
	return &entity.ApprovableDocument{
		ID:             "doc-1",
		OrganisationID: "org-1",
		Type:           approval.DocumentTypePurchaseOrder,
		Reference:      "PO-0001",
		Amount:         dec(amount),
		Status:         string(status),
		OwnerID:        "owner-1",
	}
}

func invoiceDoc(status domainwf.State, amount string) *entity.ApprovableDocument {
	return &entity.ApprovableDocument{
		ID:             "inv-1",
		OrganisationID: "org-1",
		Type:           approval.DocumentTypeInvoice,
		Reference:      "INV-0001",
		Amount:         dec(amount),
		Status:         string(status),
		OwnerID:        "owner-1",
	}
}

func principal(id string, role approval.Role) *entity.Principal {
	return &entity.Principal{ID: id, Role: role, OrganisationID: "org-1", IsActive: true}
}

func TestDecideApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("MD approval finalizes a below-threshold purchase order", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("md-1", approval.RoleMD))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateApproved {
			t.Errorf("expected APPROVED, got %s", d.NextStatus)
		}
		if d.Trigger != domainwf.TriggerApprove || d.Action != approval.ActionApproved {
			t.Errorf("unexpected trigger/action: %s/%s", d.Trigger, d.Action)
		}
		if d.Escalated {
			t.Error("below-threshold approval must not escalate")
		}
	})

	t.Run("MD approval advances to the CEO step above the threshold", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "20000"), principal("md-1", approval.RoleMD))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StatePendingCEOApproval {
			t.Errorf("expected PENDING_CEO_APPROVAL, got %s", d.NextStatus)
		}
	})

	t.Run("custom chain reroutes to CEO above the escalation threshold", func(t *testing.T) {
		settings := thresholdSettings()
		settings.UseCustomWorkflows = true
		wf := &entity.ApprovalWorkflow{
			ID: "wf-1", OrganisationID: "org-1",
			DocumentType: approval.DocumentTypePurchaseOrder,
			IsDefault:    true, IsActive: true,
			Steps: []*entity.WorkflowStep{
				{StepOrder: 1, ApproverRole: approval.RoleMD, IsRequired: true},
			},
		}
		f := newGuardFixture(settings, wf)

		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "20000"), principal("md-1", approval.RoleMD))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.Trigger != domainwf.TriggerEscalate {
			t.Errorf("expected ESCALATE trigger, got %s", d.Trigger)
		}
		if d.NextStatus != domainwf.StatePendingCEOApproval {
			t.Errorf("expected PENDING_CEO_APPROVAL, got %s", d.NextStatus)
		}
		if d.Comment != "routed to CEO" {
			t.Errorf("unexpected comment %q", d.Comment)
		}
		if !d.Escalated {
			t.Error("expected escalated decision")
		}
	})

	t.Run("CEO finalizes the threshold chain's CEO step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingCEOApproval, "20000"), principal("ceo-1", approval.RoleCEO))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateApproved {
			t.Errorf("expected APPROVED, got %s", d.NextStatus)
		}
		if d.Escalated {
			t.Error("CEO's own approval is not an escalation")
		}
	})

	t.Run("CEO finalizes a purchase order escalated off a chain without a CEO step", func(t *testing.T) {
		settings := thresholdSettings()
		settings.UseCustomWorkflows = true
		wf := &entity.ApprovalWorkflow{
			ID: "wf-1", OrganisationID: "org-1",
			DocumentType: approval.DocumentTypePurchaseOrder,
			IsDefault:    true, IsActive: true,
			Steps: []*entity.WorkflowStep{
				{StepOrder: 1, ApproverRole: approval.RoleMD, IsRequired: true},
			},
		}
		f := newGuardFixture(settings, wf)

		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingCEOApproval, "20000"), principal("ceo-1", approval.RoleCEO))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.Trigger != domainwf.TriggerApprove || d.NextStatus != domainwf.StateApproved {
			t.Errorf("expected APPROVE to APPROVED, got %s to %s", d.Trigger, d.NextStatus)
		}
		if d.Escalated {
			t.Error("CEO's own approval is not an escalation")
		}
	})

	t.Run("CEO may not act on the MD step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "20000"), principal("ceo-1", approval.RoleCEO))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("ADMIN may not act on the CEO step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingCEOApproval, "20000"), principal("admin-1", approval.RoleAdmin))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("ADMIN carries MD authority", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("admin-1", approval.RoleAdmin))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateApproved {
			t.Errorf("expected APPROVED, got %s", d.NextStatus)
		}
		if d.OnBehalfOf != "" {
			t.Errorf("ADMIN authority is direct, got on_behalf_of %q", d.OnBehalfOf)
		}
	})

	t.Run("active delegate approves the MD step on the delegator's behalf", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		f.delegations.delegations = append(f.delegations.delegations, &entity.ApprovalDelegation{
			ID: "d-1", DelegatorID: "md-1", DelegateID: "pm-1",
			Scope: approval.ScopePOApproval, IsActive: true,
		})

		d, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("pm-1", approval.RolePropertyManager))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.OnBehalfOf != "md-1" {
			t.Errorf("expected on_behalf_of md-1, got %q", d.OnBehalfOf)
		}
	})

	t.Run("PM without delegation may not act on the MD step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("pm-1", approval.RolePropertyManager))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("expired delegation grants nothing", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		past := time.Now().Add(-time.Hour)
		f.delegations.delegations = append(f.delegations.delegations, &entity.ApprovalDelegation{
			ID: "d-1", DelegatorID: "md-1", DelegateID: "pm-1",
			Scope: approval.ScopePOApproval, IsActive: true, EndsAt: &past,
		})

		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("pm-1", approval.RolePropertyManager))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("inactive principal may not act", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		actor := principal("md-1", approval.RoleMD)
		actor.IsActive = false
		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), actor)
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("non-pending document cannot be approved", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideApprove(ctx, poDoc(domainwf.StateDraft, "3000"), principal("md-1", approval.RoleMD))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("invoice MD approval lands on APPROVED_FOR_PAYMENT", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideApprove(ctx, invoiceDoc(domainwf.StatePendingMDApproval, "3000"), principal("md-1", approval.RoleMD))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateApprovedForPayment {
			t.Errorf("expected APPROVED_FOR_PAYMENT, got %s", d.NextStatus)
		}
	})
}

func TestDecideReject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejection carries the reason", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideReject(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("md-1", approval.RoleMD), "quote outdated")
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateRejected || d.Comment != "quote outdated" {
			t.Errorf("unexpected decision %+v", d)
		}
	})

	t.Run("rejection without a reason is invalid", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideReject(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("md-1", approval.RoleMD), "")
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejection authorization matches the approve path", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideReject(ctx, poDoc(domainwf.StatePendingMDApproval, "3000"), principal("pm-1", approval.RolePropertyManager), "no budget")
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func TestDecideSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("owner submits into the first chain step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideSubmit(ctx, poDoc(domainwf.StateDraft, "3000"), principal("owner-1", approval.RolePropertyManager))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.Trigger != domainwf.TriggerSubmit || d.NextStatus != domainwf.StatePendingMDApproval {
			t.Errorf("unexpected decision %+v", d)
		}
	})

	t.Run("empty chain auto-approves", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideSubmit(ctx, poDoc(domainwf.StateDraft, "499.99"), principal("owner-1", approval.RolePropertyManager))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.Trigger != domainwf.TriggerAutoApprove || d.NextStatus != domainwf.StateApproved {
			t.Errorf("expected auto-approval, got %+v", d)
		}
		if d.Action != approval.ActionAutoApproved {
			t.Errorf("expected AUTO_APPROVED action, got %s", d.Action)
		}
	})

	t.Run("auto-approved invoice lands on APPROVED_FOR_PAYMENT", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideSubmit(ctx, invoiceDoc(domainwf.StateMatched, "499.99"), principal("owner-1", approval.RoleAccounts))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateApprovedForPayment {
			t.Errorf("expected APPROVED_FOR_PAYMENT, got %s", d.NextStatus)
		}
	})

	t.Run("only the owner submits", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideSubmit(ctx, poDoc(domainwf.StateDraft, "3000"), principal("someone-else", approval.RolePropertyManager))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("non-positive amount is invalid", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideSubmit(ctx, poDoc(domainwf.StateDraft, "0"), principal("owner-1", approval.RolePropertyManager))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unmatched invoice cannot be submitted", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideSubmit(ctx, invoiceDoc(domainwf.StateUploaded, "3000"), principal("owner-1", approval.RoleAccounts))
		if !errors.Is(err, domainwf.ErrInvalidTransition) {
			t.Fatalf("expected invalid transition, got %v", err)
		}
	})
}

func TestDecideResubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected document re-enters the chain from the first step", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideResubmit(ctx, poDoc(domainwf.StateRejected, "3000"), principal("owner-1", approval.RolePropertyManager))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.Trigger != domainwf.TriggerResubmit || d.NextStatus != domainwf.StatePendingMDApproval {
			t.Errorf("unexpected decision %+v", d)
		}
		if d.Action != approval.ActionResubmitted {
			t.Errorf("expected RESUBMITTED action, got %s", d.Action)
		}
	})

	t.Run("only REJECTED documents resubmit", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideResubmit(ctx, poDoc(domainwf.StateDraft, "3000"), principal("owner-1", approval.RolePropertyManager))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("only the owner resubmits", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideResubmit(ctx, poDoc(domainwf.StateRejected, "3000"), principal("md-1", approval.RoleMD))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func TestDecideCancel(t *testing.T) {
	t.Run("owner cancels a draft", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecideCancel(poDoc(domainwf.StateDraft, "3000"), principal("owner-1", approval.RolePropertyManager))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StateCancelled {
			t.Errorf("expected CANCELLED, got %s", d.NextStatus)
		}
	})

	t.Run("in-flight document cannot be cancelled", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideCancel(poDoc(domainwf.StatePendingMDApproval, "3000"), principal("owner-1", approval.RolePropertyManager))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("only the owner cancels", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecideCancel(poDoc(domainwf.StateDraft, "3000"), principal("md-1", approval.RoleMD))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})
}

func TestDecidePay(t *testing.T) {
	t.Run("ACCOUNTS marks an approved invoice paid", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		d, err := f.guard.DecidePay(invoiceDoc(domainwf.StateApprovedForPayment, "3000"), principal("ac-1", approval.RoleAccounts))
		if err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		if d.NextStatus != domainwf.StatePaid || d.Action != approval.ActionPaid {
			t.Errorf("unexpected decision %+v", d)
		}
	})

	t.Run("only ACCOUNTS or ADMIN pay", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecidePay(invoiceDoc(domainwf.StateApprovedForPayment, "3000"), principal("pm-1", approval.RolePropertyManager))
		var pe *approval.PermissionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PermissionError, got %v", err)
		}
	})

	t.Run("purchase orders are never paid", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecidePay(poDoc(domainwf.StateApproved, "3000"), principal("ac-1", approval.RoleAccounts))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("unapproved invoice cannot be paid", func(t *testing.T) {
		f := newGuardFixture(thresholdSettings(), nil)
		_, err := f.guard.DecidePay(invoiceDoc(domainwf.StatePendingMDApproval, "3000"), principal("ac-1", approval.RoleAccounts))
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
