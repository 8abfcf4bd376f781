package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
	domainwf "github.com/keystonepm/approvalflow/internal/domain/workflow"
)

// DocumentService creates and reads approvable documents. Status changes go
// through the orchestrator, never through this service.
type DocumentService interface {
	CreatePurchaseOrder(ctx context.Context, owner *entity.Principal, reference, description string, amount decimal.Decimal) (*entity.ApprovableDocument, error)
	UploadInvoice(ctx context.Context, owner *entity.Principal, reference string, amount decimal.Decimal) (*entity.ApprovableDocument, error)
	Get(ctx context.Context, id string) (*entity.ApprovableDocument, error)
	ListByStatus(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.ApprovableDocument, error)
}

type documentServiceImpl struct {
	docs   port.DocumentRepository
	logger Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(docs port.DocumentRepository, logger Logger) DocumentService {
	return &documentServiceImpl{docs: docs, logger: logger}
}

func (s *documentServiceImpl) CreatePurchaseOrder(ctx context.Context, owner *entity.Principal, reference, description string, amount decimal.Decimal) (*entity.ApprovableDocument, error) {
	return s.create(ctx, owner, approval.DocumentTypePurchaseOrder, domainwf.StateDraft, reference, description, amount)
}

func (s *documentServiceImpl) UploadInvoice(ctx context.Context, owner *entity.Principal, reference string, amount decimal.Decimal) (*entity.ApprovableDocument, error) {
	return s.create(ctx, owner, approval.DocumentTypeInvoice, domainwf.StateUploaded, reference, "", amount)
}

func (s *documentServiceImpl) create(ctx context.Context, owner *entity.Principal, docType approval.DocumentType, initial domainwf.State, reference, description string, amount decimal.Decimal) (*entity.ApprovableDocument, error) {
	if amount.Sign() <= 0 {
		return nil, approval.NewValidationError("amount", "amount must be positive")
	}
	if reference == "" {
		return nil, approval.NewValidationError("reference", "reference is required")
	}

	now := time.Now()
	doc := &entity.ApprovableDocument{
		ID:             uuid.NewString(),
		OrganisationID: owner.OrganisationID,
		Type:           docType,
		Reference:      reference,
		Description:    description,
		Amount:         amount,
		Status:         initial.String(),
		OwnerID:        owner.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create %s: %w", docType, err)
	}

	s.logger.Info("Document created",
		"document_id", doc.ID,
		"type", docType,
		"owner_id", owner.ID,
		"amount", amount.String(),
	)
	return doc, nil
}

func (s *documentServiceImpl) Get(ctx context.Context, id string) (*entity.ApprovableDocument, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *documentServiceImpl) ListByStatus(ctx context.Context, orgID, status string, limit, offset int) ([]*entity.ApprovableDocument, error) {
	return s.docs.ListByStatus(ctx, orgID, status, limit, offset)
}
