// Package identity resolves acting principals from the principals table.
package identity

import (
	"context"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// Provider implements port.IdentityProvider on top of PrincipalRepository.
// It trusts the stored roles; authentication happens upstream.
type Provider struct {
	principals port.PrincipalRepository
}

// NewProvider creates a repository-backed identity provider.
func NewProvider(principals port.PrincipalRepository) *Provider {
	return &Provider{principals: principals}
}

// PrincipalByID returns the principal with the given id.
func (p *Provider) PrincipalByID(ctx context.Context, id string) (*entity.Principal, error) {
	return p.principals.GetByID(ctx, id)
}

// PrincipalsByRole returns all principals holding the role in the organisation.
func (p *Provider) PrincipalsByRole(ctx context.Context, orgID string, role approval.Role) ([]*entity.Principal, error) {
	return p.principals.ListByRole(ctx, orgID, role)
}
