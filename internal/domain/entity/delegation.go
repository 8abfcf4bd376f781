package entity

import (
	"time"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
)

// ApprovalDelegation is a time-windowed grant of a principal's signing
// authority to another user. Open bounds are unconditionally active on that
// side. At most one delegation exists per (delegator, delegate) pair.
type ApprovalDelegation struct {
	ID          string         `json:"id"`
	DelegatorID string         `json:"delegator_id"`
	DelegateID  string         `json:"delegate_id"`
	Scope       approval.Scope `json:"scope"`
	StartsAt    *time.Time     `json:"starts_at,omitempty"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
}
