// Package notification implements the NotificationDispatcher boundary with a
// persistent outbox: every attempt is recorded, marked SENT or FAILED, and
// never retried automatically.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// Sender delivers a single notification to a recipient. Implementations are
// transport-specific (email, chat); the dispatcher does not care which.
type Sender interface {
	Send(ctx context.Context, recipientID, templateKey string, payload map[string]interface{}) error
}

// LogSender is a Sender that only logs. Used when no delivery transport is
// configured.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the notification instead of delivering it.
func (s *LogSender) Send(_ context.Context, recipientID, templateKey string, payload map[string]interface{}) error {
	s.Logger.Info("Notification (log transport)",
		zap.String("recipient_id", recipientID),
		zap.String("template_key", templateKey),
		zap.Any("payload", payload))
	return nil
}

// Dispatcher implements port.NotificationDispatcher.
type Dispatcher struct {
	outbox port.NotificationRepository
	sender Sender
	logger *zap.Logger
}

// NewDispatcher creates an outbox-backed notification dispatcher.
func NewDispatcher(outbox port.NotificationRepository, sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{outbox: outbox, sender: sender, logger: logger}
}

// Notify records and delivers one notification per recipient. The first
// delivery failure is returned after all recipients have been attempted.
func (d *Dispatcher) Notify(ctx context.Context, recipientIDs []string, templateKey string, tmplContext map[string]interface{}) error {
	payload, err := json.Marshal(tmplContext)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	documentID, _ := tmplContext["document_id"].(string)

	var firstErr error
	for _, recipientID := range recipientIDs {
		n := &entity.Notification{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			RecipientID: recipientID,
			TemplateKey: templateKey,
			Payload:     string(payload),
			Status:      entity.NotificationStatusPending,
			CreatedAt:   time.Now(),
		}
		if err := d.outbox.Create(ctx, n); err != nil {
			d.logger.Error("Failed to record notification", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := d.sender.Send(ctx, recipientID, templateKey, tmplContext); err != nil {
			d.logger.Error("Failed to deliver notification",
				zap.String("notification_id", n.ID),
				zap.String("recipient_id", recipientID),
				zap.Error(err))
			if markErr := d.outbox.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				d.logger.Error("Failed to mark notification failed", zap.Error(markErr))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := d.outbox.MarkSent(ctx, n.ID); err != nil {
			d.logger.Error("Failed to mark notification sent", zap.Error(err))
		}
	}
	return firstErr
}
