// Package delegation resolves temporary grants of signing authority. All
// window checks re-read persisted delegations at call time so that expiry
// takes effect without any invalidation step.
package delegation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
	"github.com/keystonepm/approvalflow/internal/application/port"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Authority answers whether a user currently holds another principal's
// approval authority, and manages delegation lifecycle.
type Authority struct {
	delegations port.DelegationRepository
	principals  port.PrincipalRepository
	logger      Logger
	now         func() time.Time
}

// Option configures the Authority.
type Option func(*Authority)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}

// NewAuthority creates a delegation authority over the given repositories.
func NewAuthority(delegations port.DelegationRepository, principals port.PrincipalRepository, logger Logger, opts ...Option) *Authority {
	a := &Authority{
		delegations: delegations,
		principals:  principals,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsActive reports whether the delegation grants authority at the given
// instant. Unset bounds are unconditionally active on that side.
func IsActive(d *entity.ApprovalDelegation, now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}
	return true
}

// EffectiveApprovers returns the principals currently holding the given
// principal's authority for the scope.
func (a *Authority) EffectiveApprovers(ctx context.Context, principalID string, scope approval.Scope) ([]*entity.Principal, error) {
	ds, err := a.delegations.ListByDelegator(ctx, principalID, scope)
	if err != nil {
		return nil, fmt.Errorf("list delegations for %s: %w", principalID, err)
	}

	now := a.now()
	approvers := make([]*entity.Principal, 0, len(ds))
	for _, d := range ds {
		if !IsActive(d, now) {
			continue
		}
		p, err := a.principals.GetByID(ctx, d.DelegateID)
		if err != nil {
			a.logger.Error("Failed to resolve delegate", "delegate_id", d.DelegateID, "error", err)
			continue
		}
		approvers = append(approvers, p)
	}
	return approvers, nil
}

// ActiveDelegatorFor returns the id of a principal whose authority the user
// currently holds for the scope, or "" when the user is not an active
// delegate of anyone. Used both for authorization and for the
// "on behalf of" audit attribution.
func (a *Authority) ActiveDelegatorFor(ctx context.Context, userID string, scope approval.Scope) (string, error) {
	ds, err := a.delegations.ListByDelegate(ctx, userID, scope)
	if err != nil {
		return "", fmt.Errorf("list delegations for delegate %s: %w", userID, err)
	}

	now := a.now()
	for _, d := range ds {
		if IsActive(d, now) {
			return d.DelegatorID, nil
		}
	}
	return "", nil
}

// IsActiveDelegateForAnyPrincipal reports whether the user currently acts
// with any principal's authority for the scope.
func (a *Authority) IsActiveDelegateForAnyPrincipal(ctx context.Context, userID string, scope approval.Scope) (bool, error) {
	delegator, err := a.ActiveDelegatorFor(ctx, userID, scope)
	if err != nil {
		return false, err
	}
	return delegator != "", nil
}

// CreateDelegation grants a delegate the delegator's authority for the scope
// within an optional time window. CEOs can never receive delegated authority,
// and a (delegator, delegate) pair holds at most one delegation.
func (a *Authority) CreateDelegation(ctx context.Context, delegatorID, delegateID string, scope approval.Scope, startsAt, endsAt *time.Time) (*entity.ApprovalDelegation, error) {
	delegate, err := a.principals.GetByID(ctx, delegateID)
	if err != nil {
		return nil, fmt.Errorf("resolve delegate %s: %w", delegateID, err)
	}
	if delegate.Role == approval.RoleCEO {
		return nil, approval.NewPermissionError(delegateID, "a CEO cannot be assigned as a delegate")
	}

	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return nil, approval.NewValidationError("ends_at", "delegation window ends before it starts")
	}

	existing, err := a.delegations.GetByPair(ctx, delegatorID, delegateID)
	if err != nil {
		return nil, fmt.Errorf("check existing delegation: %w", err)
	}
	if existing != nil {
		return nil, approval.NewConflictError("delegation", fmt.Sprintf("delegation from %s to %s already exists", delegatorID, delegateID))
	}

	d := &entity.ApprovalDelegation{
		ID:          uuid.NewString(),
		DelegatorID: delegatorID,
		DelegateID:  delegateID,
		Scope:       scope,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		IsActive:    true,
		CreatedAt:   a.now(),
	}
	if err := a.delegations.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create delegation: %w", err)
	}

	a.logger.Info("Delegation created",
		"delegation_id", d.ID,
		"delegator_id", delegatorID,
		"delegate_id", delegateID,
		"scope", scope,
	)
	return d, nil
}

// RevokeDelegation deactivates a delegation. Past audit entries produced under
// it remain untouched.
func (a *Authority) RevokeDelegation(ctx context.Context, id string) error {
	if err := a.delegations.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("revoke delegation %s: %w", id, err)
	}
	a.logger.Info("Delegation revoked", "delegation_id", id)
	return nil
}

// ListForDelegator returns all delegations granted by a principal for a scope,
// active or not.
func (a *Authority) ListForDelegator(ctx context.Context, delegatorID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error) {
	return a.delegations.ListByDelegator(ctx, delegatorID, scope)
}
