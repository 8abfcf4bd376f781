package port

import (
	"context"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// NotificationDispatcher delivers a notification to recipients. The engine
// only consumes success or failure for logging; delivery is fire-and-forget.
type NotificationDispatcher interface {
	Notify(ctx context.Context, recipientIDs []string, templateKey string, tmplContext map[string]interface{}) error
}

// DocumentGenerator renders the printable form for a purchase order that
// reached APPROVED and returns its URL.
type DocumentGenerator interface {
	Generate(ctx context.Context, documentID string) (string, error)
}

// IdentityProvider supplies acting principals. The engine trusts its output
// and performs no authentication of its own.
type IdentityProvider interface {
	PrincipalByID(ctx context.Context, id string) (*entity.Principal, error)
	PrincipalsByRole(ctx context.Context, orgID string, role approval.Role) ([]*entity.Principal, error)
}
