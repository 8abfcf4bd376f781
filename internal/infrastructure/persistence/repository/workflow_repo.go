package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// WorkflowRepository implements port.WorkflowRepository.
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Create inserts a workflow and its steps in one transaction.
func (r *WorkflowRepository) Create(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO approval_workflows (
			id, organisation_id, name, document_type, is_default, is_active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		wf.ID, wf.OrganisationID, wf.Name, wf.DocumentType.String(),
		wf.IsDefault, wf.IsActive, wf.CreatedAt, wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	if err := insertSteps(ctx, tx, wf); err != nil {
		return err
	}
	return tx.Commit()
}

func insertSteps(ctx context.Context, tx *sql.Tx, wf *entity.ApprovalWorkflow) error {
	for _, step := range wf.Steps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workflow_steps (
				id, workflow_id, step_order, approver_role,
				min_amount, max_amount, skip_if_below_amount, is_required
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			step.ID, wf.ID, step.StepOrder, step.ApproverRole.String(),
			decimalString(step.MinAmount), decimalString(step.MaxAmount),
			decimalString(step.SkipIfBelowAmount), step.IsRequired,
		)
		if err != nil {
			return fmt.Errorf("failed to create workflow step %d: %w", step.StepOrder, err)
		}
	}
	return nil
}

// GetByID retrieves a workflow with its steps.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalWorkflow, error) {
	wf, err := r.scanWorkflow(r.db.QueryRowContext(ctx, `
		SELECT id, organisation_id, name, document_type, is_default, is_active,
			created_at, updated_at
		FROM approval_workflows WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if err := r.loadSteps(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// GetActiveDefault returns the organisation's active default workflow for the
// document type, or nil when none exists.
func (r *WorkflowRepository) GetActiveDefault(ctx context.Context, orgID string, docType approval.DocumentType) (*entity.ApprovalWorkflow, error) {
	wf, err := r.scanWorkflow(r.db.QueryRowContext(ctx, `
		SELECT id, organisation_id, name, document_type, is_default, is_active,
			created_at, updated_at
		FROM approval_workflows
		WHERE organisation_id = ? AND document_type = ? AND is_default = 1 AND is_active = 1
	`, orgID, docType.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default workflow: %w", err)
	}
	if err := r.loadSteps(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// ListByOrganisation returns all workflows of an organisation with steps.
func (r *WorkflowRepository) ListByOrganisation(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, organisation_id, name, document_type, is_default, is_active,
			created_at, updated_at
		FROM approval_workflows
		WHERE organisation_id = ?
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var wfs []*entity.ApprovalWorkflow
	for rows.Next() {
		wf, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		wfs = append(wfs, wf)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, wf := range wfs {
		if err := r.loadSteps(ctx, wf); err != nil {
			return nil, err
		}
	}
	return wfs, nil
}

// Update rewrites a workflow and replaces its steps.
func (r *WorkflowRepository) Update(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE approval_workflows
		SET name = ?, is_default = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, wf.Name, wf.IsDefault, wf.IsActive, wf.UpdatedAt, wf.ID)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM workflow_steps WHERE workflow_id = ?", wf.ID); err != nil {
		return fmt.Errorf("failed to clear workflow steps: %w", err)
	}
	if err := insertSteps(ctx, tx, wf); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a workflow; steps cascade.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM approval_workflows WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	return nil
}

// ClearDefault unsets the current active default for the organisation+type.
func (r *WorkflowRepository) ClearDefault(ctx context.Context, orgID string, docType approval.DocumentType) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE approval_workflows SET is_default = 0, updated_at = CURRENT_TIMESTAMP
		WHERE organisation_id = ? AND document_type = ? AND is_default = 1
	`, orgID, docType.String())
	if err != nil {
		return fmt.Errorf("failed to clear default workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*entity.ApprovalWorkflow, error) {
	var wf entity.ApprovalWorkflow
	var docType string
	err := row.Scan(
		&wf.ID, &wf.OrganisationID, &wf.Name, &docType,
		&wf.IsDefault, &wf.IsActive, &wf.CreatedAt, &wf.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	wf.DocumentType = approval.DocumentType(docType)
	return &wf, nil
}

func (r *WorkflowRepository) loadSteps(ctx context.Context, wf *entity.ApprovalWorkflow) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, step_order, approver_role,
			min_amount, max_amount, skip_if_below_amount, is_required
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY step_order ASC
	`, wf.ID)
	if err != nil {
		return fmt.Errorf("failed to load workflow steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step entity.WorkflowStep
		var role string
		var minAmount, maxAmount, skipBelow sql.NullString
		if err := rows.Scan(
			&step.ID, &step.WorkflowID, &step.StepOrder, &role,
			&minAmount, &maxAmount, &skipBelow, &step.IsRequired,
		); err != nil {
			return fmt.Errorf("failed to scan workflow step: %w", err)
		}
		step.ApproverRole = approval.Role(role)
		if step.MinAmount, err = nullDecimal(minAmount); err != nil {
			return err
		}
		if step.MaxAmount, err = nullDecimal(maxAmount); err != nil {
			return err
		}
		if step.SkipIfBelowAmount, err = nullDecimal(skipBelow); err != nil {
			return err
		}
		wf.Steps = append(wf.Steps, &step)
	}
	return rows.Err()
}
