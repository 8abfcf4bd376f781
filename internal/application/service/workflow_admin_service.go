package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// WorkflowAdminService manages custom approval workflows and organisation
// settings. MD and ADMIN only; enforcement sits at the transport layer.
type WorkflowAdminService interface {
	CreateWorkflow(ctx context.Context, wf *entity.ApprovalWorkflow) (*entity.ApprovalWorkflow, error)
	GetWorkflow(ctx context.Context, id string) (*entity.ApprovalWorkflow, error)
	ListWorkflows(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error)
	UpdateWorkflow(ctx context.Context, wf *entity.ApprovalWorkflow) error
	DeleteWorkflow(ctx context.Context, id string) error
	GetSettings(ctx context.Context, orgID string) (*entity.WorkflowSettings, error)
	UpdateSettings(ctx context.Context, settings *entity.WorkflowSettings) error
}

type workflowAdminImpl struct {
	workflows port.WorkflowRepository
	settings  port.SettingsRepository
	logger    Logger
}

// NewWorkflowAdminService creates a workflow admin service.
func NewWorkflowAdminService(workflows port.WorkflowRepository, settings port.SettingsRepository, logger Logger) WorkflowAdminService {
	return &workflowAdminImpl{workflows: workflows, settings: settings, logger: logger}
}

// validateSteps checks the chain shape: at least one step, unique ascending
// orders, chain-capable roles, and sane amount bounds.
func validateSteps(steps []*entity.WorkflowStep) error {
	if len(steps) == 0 {
		return approval.NewValidationError("steps", "a workflow requires at least one step")
	}

	seen := make(map[int]bool, len(steps))
	for _, s := range steps {
		if seen[s.StepOrder] {
			return approval.NewValidationError("step_order", fmt.Sprintf("duplicate step order %d", s.StepOrder))
		}
		seen[s.StepOrder] = true

		switch s.ApproverRole {
		case approval.RolePropertyManager, approval.RoleMD, approval.RoleCEO:
		default:
			return approval.NewValidationError("approver_role", fmt.Sprintf("role %s cannot approve a workflow step", s.ApproverRole))
		}

		if s.MinAmount != nil && s.MaxAmount != nil && s.MinAmount.GreaterThan(*s.MaxAmount) {
			return approval.NewValidationError("min_amount", fmt.Sprintf("step %d has min_amount above max_amount", s.StepOrder))
		}
		if s.SkipIfBelowAmount != nil && s.SkipIfBelowAmount.Sign() < 0 {
			return approval.NewValidationError("skip_if_below_amount", fmt.Sprintf("step %d has a negative skip threshold", s.StepOrder))
		}
	}
	return nil
}

func (s *workflowAdminImpl) CreateWorkflow(ctx context.Context, wf *entity.ApprovalWorkflow) (*entity.ApprovalWorkflow, error) {
	if !wf.DocumentType.IsValid() {
		return nil, approval.NewValidationError("document_type", fmt.Sprintf("unknown document type %s", wf.DocumentType))
	}
	if err := validateSteps(wf.Steps); err != nil {
		return nil, err
	}

	wf.ID = uuid.NewString()
	wf.CreatedAt = time.Now()
	wf.UpdatedAt = wf.CreatedAt
	sort.SliceStable(wf.Steps, func(i, j int) bool { return wf.Steps[i].StepOrder < wf.Steps[j].StepOrder })
	for _, step := range wf.Steps {
		step.ID = uuid.NewString()
		step.WorkflowID = wf.ID
	}

	// A new active default displaces the previous one; at most one active
	// default exists per organisation and document type.
	if wf.IsDefault && wf.IsActive {
		if err := s.workflows.ClearDefault(ctx, wf.OrganisationID, wf.DocumentType); err != nil {
			return nil, fmt.Errorf("clear previous default: %w", err)
		}
	}

	if err := s.workflows.Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}

	s.logger.Info("Workflow created",
		"workflow_id", wf.ID,
		"organisation_id", wf.OrganisationID,
		"document_type", wf.DocumentType,
		"steps", len(wf.Steps),
		"is_default", wf.IsDefault,
	)
	return wf, nil
}

func (s *workflowAdminImpl) GetWorkflow(ctx context.Context, id string) (*entity.ApprovalWorkflow, error) {
	return s.workflows.GetByID(ctx, id)
}

func (s *workflowAdminImpl) ListWorkflows(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error) {
	return s.workflows.ListByOrganisation(ctx, orgID)
}

func (s *workflowAdminImpl) UpdateWorkflow(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	if err := validateSteps(wf.Steps); err != nil {
		return err
	}
	for _, step := range wf.Steps {
		if step.ID == "" {
			step.ID = uuid.NewString()
		}
		step.WorkflowID = wf.ID
	}
	if wf.IsDefault && wf.IsActive {
		if err := s.workflows.ClearDefault(ctx, wf.OrganisationID, wf.DocumentType); err != nil {
			return fmt.Errorf("clear previous default: %w", err)
		}
	}
	wf.UpdatedAt = time.Now()
	if err := s.workflows.Update(ctx, wf); err != nil {
		return fmt.Errorf("update workflow %s: %w", wf.ID, err)
	}
	s.logger.Info("Workflow updated", "workflow_id", wf.ID)
	return nil
}

// DeleteWorkflow removes a workflow and its steps. Audit entries produced
// under it are untouched.
func (s *workflowAdminImpl) DeleteWorkflow(ctx context.Context, id string) error {
	if err := s.workflows.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete workflow %s: %w", id, err)
	}
	s.logger.Info("Workflow deleted", "workflow_id", id)
	return nil
}

func (s *workflowAdminImpl) GetSettings(ctx context.Context, orgID string) (*entity.WorkflowSettings, error) {
	return s.settings.GetByOrganisation(ctx, orgID)
}

func (s *workflowAdminImpl) UpdateSettings(ctx context.Context, settings *entity.WorkflowSettings) error {
	if settings.AutoApproveBelowAmount != nil && settings.AutoApproveBelowAmount.Sign() < 0 {
		return approval.NewValidationError("auto_approve_below_amount", "threshold cannot be negative")
	}
	if settings.RequireCEOAboveAmount != nil && settings.RequireCEOAboveAmount.Sign() < 0 {
		return approval.NewValidationError("require_ceo_above_amount", "threshold cannot be negative")
	}
	settings.UpdatedAt = time.Now()
	if err := s.settings.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings for %s: %w", settings.OrganisationID, err)
	}
	s.logger.Info("Settings updated",
		"organisation_id", settings.OrganisationID,
		"use_custom_workflows", settings.UseCustomWorkflows,
	)
	return nil
}
