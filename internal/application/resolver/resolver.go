// Package resolver computes the ordered approval chain a document must pass
// through for a given amount and document type.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// ResolvedStep is one required (or optional) approval in the chain.
type ResolvedStep struct {
	Role     approval.Role `json:"role"`
	Required bool          `json:"required"`
}

// Resolver derives applicable approval steps from the organisation's
// settings. Settings and workflows are re-read on every call so a threshold
// change takes effect on the very next action.
type Resolver struct {
	settings  port.SettingsRepository
	workflows port.WorkflowRepository
}

// New creates a workflow resolver.
func New(settings port.SettingsRepository, workflows port.WorkflowRepository) *Resolver {
	return &Resolver{settings: settings, workflows: workflows}
}

// ApplicableSteps returns the ordered approval steps for the amount and
// document type. An empty list means no human approval is required and the
// creator's own submission finalizes the document.
func (r *Resolver) ApplicableSteps(ctx context.Context, orgID string, amount decimal.Decimal, docType approval.DocumentType) ([]ResolvedStep, error) {
	if amount.Sign() <= 0 {
		return nil, approval.NewValidationError("amount", "amount must be positive")
	}

	settings, err := r.settings.GetByOrganisation(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load settings for %s: %w", orgID, err)
	}

	if settings == nil || !settings.UseCustomWorkflows {
		return thresholdSteps(settings, amount), nil
	}
	return r.customSteps(ctx, orgID, amount, docType)
}

// thresholdSteps implements the simple-threshold policy: below the
// auto-approve floor nobody signs; otherwise the MD signs, and the CEO signs
// on top above the escalation threshold.
func thresholdSteps(settings *entity.WorkflowSettings, amount decimal.Decimal) []ResolvedStep {
	if settings != nil && settings.AutoApproveBelowAmount != nil &&
		amount.LessThan(*settings.AutoApproveBelowAmount) {
		return []ResolvedStep{}
	}

	steps := []ResolvedStep{{Role: approval.RoleMD, Required: true}}
	if settings != nil && settings.RequireCEOAboveAmount != nil &&
		amount.GreaterThanOrEqual(*settings.RequireCEOAboveAmount) {
		steps = append(steps, ResolvedStep{Role: approval.RoleCEO, Required: true})
	}
	return steps
}

// customSteps resolves the organisation's active default workflow and filters
// its steps by the amount bounds. A missing workflow falls back to a single
// mandatory MD step, never an empty chain.
func (r *Resolver) customSteps(ctx context.Context, orgID string, amount decimal.Decimal, docType approval.DocumentType) ([]ResolvedStep, error) {
	wf, err := r.workflows.GetActiveDefault(ctx, orgID, docType)
	if err != nil {
		return nil, fmt.Errorf("load default workflow for %s/%s: %w", orgID, docType, err)
	}
	if wf == nil || len(wf.Steps) == 0 {
		return []ResolvedStep{{Role: approval.RoleMD, Required: true}}, nil
	}

	applicable := wf.Steps[:0:0]
	for _, step := range wf.Steps {
		if step.AppliesTo(amount) {
			applicable = append(applicable, step)
		}
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].StepOrder < applicable[j].StepOrder
	})

	steps := make([]ResolvedStep, 0, len(applicable))
	for _, step := range applicable {
		steps = append(steps, ResolvedStep{Role: step.ApproverRole, Required: step.IsRequired})
	}
	if len(steps) == 0 {
		// Amount bounds can exclude every configured step. The custom policy
		// never auto-approves, so the MD fallback applies here too.
		return []ResolvedStep{{Role: approval.RoleMD, Required: true}}, nil
	}
	return steps, nil
}
