// Package repository provides SQLite-backed implementations of the
// application's persistence ports.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// DocumentRepository implements port.DocumentRepository.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

// Create inserts a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.ApprovableDocument) error {
	query := `
		INSERT INTO documents (
			id, organisation_id, doc_type, reference, description, amount,
			status, owner_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.OrganisationID,
		doc.Type.String(),
		doc.Reference,
		doc.Description,
		doc.Amount.String(),
		doc.Status,
		doc.OwnerID,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.ApprovableDocument, error) {
	query := `
		SELECT id, organisation_id, doc_type, reference, description, amount,
			status, owner_id, approver_id, rejection_reason, matched_po_id,
			mismatch_note, submitted_at, approved_at, created_at, updated_at
		FROM documents
		WHERE id = ?
	`
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ConditionalUpdateStatus applies the status transition only when the row's
// status still equals expectedStatus. Returns false when the row was changed
// concurrently.
func (r *DocumentRepository) ConditionalUpdateStatus(ctx context.Context, id, expectedStatus, newStatus string, fields port.DocumentFields) (bool, error) {
	query := "UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{newStatus}

	if fields.ApproverID != nil {
		query += ", approver_id = ?"
		args = append(args, *fields.ApproverID)
	}
	if fields.RejectionReason != nil {
		query += ", rejection_reason = ?"
		args = append(args, *fields.RejectionReason)
	}
	if fields.MatchedPOID != nil {
		query += ", matched_po_id = ?"
		args = append(args, *fields.MatchedPOID)
	}
	if fields.MismatchNote != nil {
		query += ", mismatch_note = ?"
		args = append(args, *fields.MismatchNote)
	}
	if fields.SubmittedAt != nil {
		query += ", submitted_at = ?"
		args = append(args, *fields.SubmittedAt)
	}
	if fields.ApprovedAt != nil {
		query += ", approved_at = ?"
		args = append(args, *fields.ApprovedAt)
	}

	query += " WHERE id = ? AND status = ?"
	args = append(args, id, expectedStatus)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update document status", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update document status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListByStatus returns documents of an organisation in the given status.
func (r *DocumentRepository) ListByStatus(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.ApprovableDocument, error) {
	query := `
		SELECT id, organisation_id, doc_type, reference, description, amount,
			status, owner_id, approver_id, rejection_reason, matched_po_id,
			mismatch_note, submitted_at, approved_at, created_at, updated_at
		FROM documents
		WHERE organisation_id = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.ApprovableDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*entity.ApprovableDocument, error) {
	var doc entity.ApprovableDocument
	var docType, amountStr string
	var submittedAt, approvedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.OrganisationID,
		&docType,
		&doc.Reference,
		&doc.Description,
		&amountStr,
		&doc.Status,
		&doc.OwnerID,
		&doc.ApproverID,
		&doc.RejectionReason,
		&doc.MatchedPOID,
		&doc.MismatchNote,
		&submittedAt,
		&approvedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Type = approval.DocumentType(docType)
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
	}
	doc.Amount = amount
	if submittedAt.Valid {
		doc.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		doc.ApprovedAt = &approvedAt.Time
	}
	return &doc, nil
}
