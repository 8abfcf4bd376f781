package service

import (
	"context"
	"fmt"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// AuditService exposes the append-only approval trail. There is no mutation
// API: the trail is the record of record.
type AuditService interface {
	Trail(ctx context.Context, documentID string) ([]*entity.ApprovalLogEntry, error)
}

type auditServiceImpl struct {
	logs   port.LogRepository
	logger Logger
}

// NewAuditService creates an audit query service.
func NewAuditService(logs port.LogRepository, logger Logger) AuditService {
	return &auditServiceImpl{logs: logs, logger: logger}
}

// Trail returns a document's audit entries in insertion order.
func (s *auditServiceImpl) Trail(ctx context.Context, documentID string) ([]*entity.ApprovalLogEntry, error) {
	entries, err := s.logs.GetByDocumentID(ctx, documentID)
	if err != nil {
		s.logger.Error("Failed to load audit trail", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("load audit trail for %s: %w", documentID, err)
	}
	return entries, nil
}
