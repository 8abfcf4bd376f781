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

// LogRepository implements port.LogRepository. The table is append-only; no
// update or delete statement exists in this package.
type LogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLogRepository creates a new approval log repository.
func NewLogRepository(db *sql.DB, logger *zap.Logger) port.LogRepository {
	return &LogRepository{db: db, logger: logger}
}

// Append inserts a new audit entry.
func (r *LogRepository) Append(ctx context.Context, entry *entity.ApprovalLogEntry) error {
	query := `
		INSERT INTO approval_log (
			id, document_id, action, actor_id, on_behalf_of,
			previous_status, new_status, comment, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.DocumentID,
		entry.Action.String(),
		entry.ActorID,
		entry.OnBehalfOf,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.Comment,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry", zap.String("document_id", entry.DocumentID), zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// GetByDocumentID returns a document's entries in insertion order.
func (r *LogRepository) GetByDocumentID(ctx context.Context, documentID string) ([]*entity.ApprovalLogEntry, error) {
	query := `
		SELECT id, document_id, action, actor_id, on_behalf_of,
			previous_status, new_status, comment, timestamp
		FROM approval_log
		WHERE document_id = ?
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.ApprovalLogEntry
	for rows.Next() {
		var e entity.ApprovalLogEntry
		var action string
		if err := rows.Scan(
			&e.ID,
			&e.DocumentID,
			&action,
			&e.ActorID,
			&e.OnBehalfOf,
			&e.PreviousStatus,
			&e.NewStatus,
			&e.Comment,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Action = approval.Action(action)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
