package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// NotificationRepository implements port.NotificationRepository.
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification outbox repository.
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts a pending outbox row.
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, document_id, recipient_id, template_key, payload, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.DocumentID, n.RecipientID, n.TemplateKey, n.Payload, n.Status, n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// MarkSent records successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = ?, sent_at = CURRENT_TIMESTAMP WHERE id = ?
	`, entity.NotificationStatusSent, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed records a delivery failure. Failed rows are not retried.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = ?, error_msg = ? WHERE id = ?
	`, entity.NotificationStatusFailed, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

// ListByDocument returns all notification rows for a document.
func (r *NotificationRepository) ListByDocument(ctx context.Context, documentID string) ([]*entity.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, recipient_id, template_key, payload, status,
			error_msg, created_at, sent_at
		FROM notifications
		WHERE document_id = ?
		ORDER BY created_at
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var ns []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var sentAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.DocumentID, &n.RecipientID, &n.TemplateKey, &n.Payload,
			&n.Status, &n.ErrorMsg, &n.CreatedAt, &sentAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sentAt.Valid {
			n.SentAt = &sentAt.Time
		}
		ns = append(ns, &n)
	}
	return ns, rows.Err()
}
