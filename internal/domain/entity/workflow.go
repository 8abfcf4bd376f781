package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
)

// WorkflowSettings holds an organisation's approval policy switches.
// Nil thresholds mean the rule is disabled.
type WorkflowSettings struct {
	OrganisationID         string           `json:"organisation_id"`
	UseCustomWorkflows     bool             `json:"use_custom_workflows"`
	AutoApproveBelowAmount *decimal.Decimal `json:"auto_approve_below_amount,omitempty"`
	RequireCEOAboveAmount  *decimal.Decimal `json:"require_ceo_above_amount,omitempty"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// CEOThreshold returns the configured escalation threshold, falling back to
// approval.DefaultCEOThreshold when the organisation has not set one.
func (s *WorkflowSettings) CEOThreshold() decimal.Decimal {
	if s != nil && s.RequireCEOAboveAmount != nil {
		return *s.RequireCEOAboveAmount
	}
	return approval.DefaultCEOThreshold
}

// ApprovalWorkflow is an administrator-managed chain of approval steps for
// one document type. At most one active default exists per organisation+type.
type ApprovalWorkflow struct {
	ID             string                `json:"id"`
	OrganisationID string                `json:"organisation_id"`
	Name           string                `json:"name"`
	DocumentType   approval.DocumentType `json:"document_type"`
	IsDefault      bool                  `json:"is_default"`
	IsActive       bool                  `json:"is_active"`
	Steps          []*WorkflowStep       `json:"steps"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// WorkflowStep is one position in a custom approval chain. Amount bounds are
// optional; a nil bound does not constrain.
type WorkflowStep struct {
	ID                string           `json:"id"`
	WorkflowID        string           `json:"workflow_id"`
	StepOrder         int              `json:"step_order"`
	ApproverRole      approval.Role    `json:"approver_role"`
	MinAmount         *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount         *decimal.Decimal `json:"max_amount,omitempty"`
	SkipIfBelowAmount *decimal.Decimal `json:"skip_if_below_amount,omitempty"`
	IsRequired        bool             `json:"is_required"`
}

// AppliesTo reports whether the step's amount bounds include the given amount.
func (s *WorkflowStep) AppliesTo(amount decimal.Decimal) bool {
	if s.SkipIfBelowAmount != nil && amount.LessThan(*s.SkipIfBelowAmount) {
		return false
	}
	if s.MinAmount != nil && amount.LessThan(*s.MinAmount) {
		return false
	}
	if s.MaxAmount != nil && amount.GreaterThan(*s.MaxAmount) {
		return false
	}
	return true
}
