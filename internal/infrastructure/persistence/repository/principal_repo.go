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

// PrincipalRepository implements port.PrincipalRepository over the local
// principal mirror maintained by the identity provider sync.
type PrincipalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPrincipalRepository creates a new principal repository.
func NewPrincipalRepository(db *sql.DB, logger *zap.Logger) port.PrincipalRepository {
	return &PrincipalRepository{db: db, logger: logger}
}

// GetByID retrieves a principal by ID.
func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*entity.Principal, error) {
	var p entity.Principal
	var role string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, role, organisation_id, name, email, is_active
		FROM principals WHERE id = ?
	`, id).Scan(&p.ID, &role, &p.OrganisationID, &p.Name, &p.Email, &p.IsActive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("principal %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get principal: %w", err)
	}
	p.Role = approval.Role(role)
	return &p, nil
}

// ListByRole returns active principals of an organisation holding a role.
func (r *PrincipalRepository) ListByRole(ctx context.Context, orgID string, role approval.Role) ([]*entity.Principal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, role, organisation_id, name, email, is_active
		FROM principals
		WHERE organisation_id = ? AND role = ? AND is_active = 1
		ORDER BY name
	`, orgID, role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list principals: %w", err)
	}
	defer rows.Close()

	var ps []*entity.Principal
	for rows.Next() {
		var p entity.Principal
		var roleStr string
		if err := rows.Scan(&p.ID, &roleStr, &p.OrganisationID, &p.Name, &p.Email, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan principal: %w", err)
		}
		p.Role = approval.Role(roleStr)
		ps = append(ps, &p)
	}
	return ps, rows.Err()
}
