package entity

import "github.com/keystonepm/approvalflow/internal/domain/approval"

// Principal is an acting user as supplied by the identity provider.
// Role is immutable for the duration of a single approval action.
type Principal struct {
	ID             string        `json:"id"`
	Role           approval.Role `json:"role"`
	OrganisationID string        `json:"organisation_id"`
	Name           string        `json:"name,omitempty"`
	Email          string        `json:"email,omitempty"`
	IsActive       bool          `json:"is_active"`
}
