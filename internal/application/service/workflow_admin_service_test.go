package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type recordingWorkflowRepo struct {
	created       []*entity.ApprovalWorkflow
	updated       []*entity.ApprovalWorkflow
	clearDefaults int
}

func (r *recordingWorkflowRepo) Create(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	r.created = append(r.created, wf)
	return nil
}
func (r *recordingWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalWorkflow, error) {
	return nil, nil
}
func (r *recordingWorkflowRepo) GetActiveDefault(ctx context.Context, orgID string, docType approval.DocumentType) (*entity.ApprovalWorkflow, error) {
	return nil, nil
}
func (r *recordingWorkflowRepo) ListByOrganisation(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error) {
	return nil, nil
}
func (r *recordingWorkflowRepo) Update(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	r.updated = append(r.updated, wf)
	return nil
}
func (r *recordingWorkflowRepo) Delete(ctx context.Context, id string) error { return nil }
func (r *recordingWorkflowRepo) ClearDefault(ctx context.Context, orgID string, docType approval.DocumentType) error {
	r.clearDefaults++
	return nil
}

type recordingSettingsRepo struct {
	saved *entity.WorkflowSettings
}

func (r *recordingSettingsRepo) GetByOrganisation(ctx context.Context, orgID string) (*entity.WorkflowSettings, error) {
	return r.saved, nil
}
func (r *recordingSettingsRepo) Save(ctx context.Context, settings *entity.WorkflowSettings) error {
	r.saved = settings
	return nil
}

func amount(v string) *decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return &d
}

func step(order int, role approval.Role) *entity.WorkflowStep {
	return &entity.WorkflowStep{StepOrder: order, ApproverRole: role, IsRequired: true}
}

func validWorkflow() *entity.ApprovalWorkflow {
	return &entity.ApprovalWorkflow{
		OrganisationID: "org-1",
		Name:           "High value POs",
		DocumentType:   approval.DocumentTypePurchaseOrder,
		IsActive:       true,
		Steps: []*entity.WorkflowStep{
			step(2, approval.RoleMD),
			step(1, approval.RolePropertyManager),
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	t.Run("assigns ids and sorts steps by order", func(t *testing.T) {
		repo := &recordingWorkflowRepo{}
		svc := NewWorkflowAdminService(repo, &recordingSettingsRepo{}, nopLogger{})

		wf, err := svc.CreateWorkflow(context.Background(), validWorkflow())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if wf.ID == "" {
			t.Error("expected a generated workflow id")
		}
		if wf.Steps[0].ApproverRole != approval.RolePropertyManager {
			t.Errorf("steps must be sorted by order, first is %s", wf.Steps[0].ApproverRole)
		}
		for _, s := range wf.Steps {
			if s.ID == "" || s.WorkflowID != wf.ID {
				t.Errorf("step not linked to workflow: %+v", s)
			}
		}
		if repo.clearDefaults != 0 {
			t.Error("non-default workflow must not displace the current default")
		}
	})

	t.Run("new active default displaces the previous one", func(t *testing.T) {
		repo := &recordingWorkflowRepo{}
		svc := NewWorkflowAdminService(repo, &recordingSettingsRepo{}, nopLogger{})

		wf := validWorkflow()
		wf.IsDefault = true
		if _, err := svc.CreateWorkflow(context.Background(), wf); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if repo.clearDefaults != 1 {
			t.Errorf("expected previous default to be cleared once, got %d", repo.clearDefaults)
		}
	})

	t.Run("inactive default does not displace", func(t *testing.T) {
		repo := &recordingWorkflowRepo{}
		svc := NewWorkflowAdminService(repo, &recordingSettingsRepo{}, nopLogger{})

		wf := validWorkflow()
		wf.IsDefault = true
		wf.IsActive = false
		if _, err := svc.CreateWorkflow(context.Background(), wf); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if repo.clearDefaults != 0 {
			t.Error("inactive workflow must not displace the active default")
		}
	})

	t.Run("rejects an unknown document type", func(t *testing.T) {
		svc := NewWorkflowAdminService(&recordingWorkflowRepo{}, &recordingSettingsRepo{}, nopLogger{})
		wf := validWorkflow()
		wf.DocumentType = "RECEIPT"
		_, err := svc.CreateWorkflow(context.Background(), wf)
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestValidateSteps(t *testing.T) {
	cases := []struct {
		name  string
		steps []*entity.WorkflowStep
		ok    bool
	}{
		{"no steps", nil, false},
		{"single MD step", []*entity.WorkflowStep{step(1, approval.RoleMD)}, true},
		{"duplicate order", []*entity.WorkflowStep{step(1, approval.RoleMD), step(1, approval.RoleCEO)}, false},
		{"accounts cannot approve", []*entity.WorkflowStep{step(1, approval.RoleAccounts)}, false},
		{"admin cannot appear in a chain", []*entity.WorkflowStep{step(1, approval.RoleAdmin)}, false},
		{"inverted amount bounds", []*entity.WorkflowStep{{
			StepOrder: 1, ApproverRole: approval.RoleMD,
			MinAmount: amount("5000"), MaxAmount: amount("1000"),
		}}, false},
		{"negative skip threshold", []*entity.WorkflowStep{{
			StepOrder: 1, ApproverRole: approval.RoleMD,
			SkipIfBelowAmount: amount("-1"),
		}}, false},
		{"bounded CEO step", []*entity.WorkflowStep{{
			StepOrder: 1, ApproverRole: approval.RoleCEO,
			MinAmount: amount("10000"), SkipIfBelowAmount: amount("10000"),
		}}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateSteps(c.steps)
			if c.ok && err != nil {
				t.Errorf("expected valid steps, got %v", err)
			}
			if !c.ok {
				var ve *approval.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			}
		})
	}
}

func TestUpdateSettings(t *testing.T) {
	t.Run("persists thresholds", func(t *testing.T) {
		repo := &recordingSettingsRepo{}
		svc := NewWorkflowAdminService(&recordingWorkflowRepo{}, repo, nopLogger{})

		settings := &entity.WorkflowSettings{
			OrganisationID:         "org-1",
			UseCustomWorkflows:     true,
			AutoApproveBelowAmount: amount("500"),
		}
		if err := svc.UpdateSettings(context.Background(), settings); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if repo.saved == nil || !repo.saved.UseCustomWorkflows {
			t.Error("expected settings to be saved")
		}
		if repo.saved.UpdatedAt.IsZero() {
			t.Error("expected updated_at to be stamped")
		}
	})

	t.Run("rejects negative thresholds", func(t *testing.T) {
		svc := NewWorkflowAdminService(&recordingWorkflowRepo{}, &recordingSettingsRepo{}, nopLogger{})

		err := svc.UpdateSettings(context.Background(), &entity.WorkflowSettings{
			OrganisationID:        "org-1",
			RequireCEOAboveAmount: amount("-100"),
		})
		var ve *approval.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
