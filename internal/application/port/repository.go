package port

import (
	"context"
	"time"

	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// DocumentFields carries the optional columns written alongside a status
// transition. Nil pointers leave the column untouched; pointers to zero
// values clear it.
type DocumentFields struct {
	ApproverID      *string
	RejectionReason *string
	MatchedPOID     *string
	MismatchNote    *string
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
}

// DocumentRepository defines persistence operations for ApprovableDocument.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.ApprovableDocument) error
	GetByID(ctx context.Context, id string) (*entity.ApprovableDocument, error)

	// ConditionalUpdateStatus writes newStatus and fields only if the row's
	// status still equals expectedStatus. Returns false when no row matched,
	// which the caller must treat as a lost concurrency race.
	ConditionalUpdateStatus(ctx context.Context, id, expectedStatus, newStatus string, fields DocumentFields) (bool, error)

	ListByStatus(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.ApprovableDocument, error)
}

// LogRepository defines persistence for the append-only approval trail.
// There is deliberately no update or delete operation.
type LogRepository interface {
	Append(ctx context.Context, entry *entity.ApprovalLogEntry) error
	GetByDocumentID(ctx context.Context, documentID string) ([]*entity.ApprovalLogEntry, error)
}

// SettingsRepository loads per-organisation workflow settings. The engine
// re-reads settings on every decision; implementations must not cache.
type SettingsRepository interface {
	GetByOrganisation(ctx context.Context, orgID string) (*entity.WorkflowSettings, error)
	Save(ctx context.Context, settings *entity.WorkflowSettings) error
}

// WorkflowRepository defines persistence operations for custom approval
// workflows and their steps.
type WorkflowRepository interface {
	Create(ctx context.Context, wf *entity.ApprovalWorkflow) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalWorkflow, error)
	GetActiveDefault(ctx context.Context, orgID string, docType approval.DocumentType) (*entity.ApprovalWorkflow, error)
	ListByOrganisation(ctx context.Context, orgID string) ([]*entity.ApprovalWorkflow, error)
	Update(ctx context.Context, wf *entity.ApprovalWorkflow) error
	Delete(ctx context.Context, id string) error

	// ClearDefault unsets is_default on the current active default for the
	// organisation and document type, if any.
	ClearDefault(ctx context.Context, orgID string, docType approval.DocumentType) error
}

// DelegationRepository defines persistence operations for ApprovalDelegation.
type DelegationRepository interface {
	Create(ctx context.Context, d *entity.ApprovalDelegation) error
	GetByPair(ctx context.Context, delegatorID, delegateID string) (*entity.ApprovalDelegation, error)
	ListByDelegator(ctx context.Context, delegatorID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error)
	ListByDelegate(ctx context.Context, delegateID string, scope approval.Scope) ([]*entity.ApprovalDelegation, error)
	Deactivate(ctx context.Context, id string) error
}

// PrincipalRepository defines read access to known principals.
type PrincipalRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Principal, error)
	ListByRole(ctx context.Context, orgID string, role approval.Role) ([]*entity.Principal, error)
}

// NotificationRepository persists the notification outbox. Rows move from
// PENDING to SENT or FAILED and are never retried automatically.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errorMsg string) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.Notification, error)
}
