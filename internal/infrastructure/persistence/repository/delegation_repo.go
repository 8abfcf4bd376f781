package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// DelegationRepository implements port.DelegationRepository.
type DelegationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDelegationRepository creates a new delegation repository.
func NewDelegationRepository(db *sql.DB, logger *zap.Logger) port.DelegationRepository {
	return &DelegationRepository{db: db, logger: logger}
}

// Create inserts a delegation. The unique constraint on the
// (delegator, delegate) pair backs the one-delegation-per-pair invariant.
func (r *DelegationRepository) Create(ctx context.Context, d *entity.ApprovalDelegation) error {
	query := `
		INSERT INTO approval_delegations (
			id, delegator_id, delegate_id, scope, starts_at, ends_at,
			is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.DelegatorID, d.DelegateID, d.Scope,
		nullTime(d.StartsAt), nullTime(d.EndsAt), d.IsActive, d.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create delegation", zap.Error(err))
		return fmt.Errorf("failed to create delegation: %w", err)
	}
	return nil
}

// GetByPair returns the delegation for a (delegator, delegate) pair, or nil.
func (r *DelegationRepository) GetByPair(ctx context.Context, delegatorID, delegateID string) (*entity.ApprovalDelegation, error) {
	d, err := scanDelegation(r.db.QueryRowContext(ctx, `
		SELECT id, delegator_id, delegate_id, scope, starts_at, ends_at,
			is_active, created_at
		FROM approval_delegations
		WHERE delegator_id = ? AND delegate_id = ?
	`, delegatorID, delegateID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation: %w", err)
	}
	return d, nil
}

// ListByDelegator returns all delegations granted by a principal for a scope.
func (r *DelegationRepository) ListByDelegator(ctx context.Context, delegatorID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	return r.list(ctx, "delegator_id", delegatorID, scope)
}

// ListByDelegate returns all delegations held by a user for a scope.
func (r *DelegationRepository) ListByDelegate(ctx context.Context, delegateID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	return r.list(ctx, "delegate_id", delegateID, scope)
}

func (r *DelegationRepository) list(ctx context.Context, column, id string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	query := fmt.Sprintf(`
		SELECT id, delegator_id, delegate_id, scope, starts_at, ends_at,
			is_active, created_at
		FROM approval_delegations
		WHERE %s = ? AND scope = ?
		ORDER BY created_at
	`, column)

	rows, err := r.db.QueryContext(ctx, query, id, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegations: %w", err)
	}
	defer rows.Close()

	var ds []*entity.ApprovalDelegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delegation: %w", err)
		}
		ds = append(ds, d)
	}
	return ds, rows.Err()
}

// Deactivate marks a delegation inactive. The row is kept; past audit
// entries reference it.
func (r *DelegationRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE approval_delegations SET is_active = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to deactivate delegation: %w", err)
	}
	return nil
}

func scanDelegation(row rowScanner) (*entity.ApprovalDelegation, error) {
	var d entity.ApprovalDelegation
	var scope string
	var startsAt, endsAt sql.NullTime
	err := row.Scan(
		&d.ID, &d.DelegatorID, &d.DelegateID, &scope,
		&startsAt, &endsAt, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Scope = approval.Scope(scope)
	if startsAt.Valid {
		d.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		d.EndsAt = &endsAt.Time
	}
	return &d, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
