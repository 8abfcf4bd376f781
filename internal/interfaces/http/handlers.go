package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/keystonepm/approvalflow/internal/application/delegation"
	"github.com/keystonepm/approvalflow/internal/application/orchestrator"
	"github.com/keystonepm/approvalflow/internal/application/service"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
	"github.com/keystonepm/approvalflow/internal/domain/entity"
)

// principalKey is the gin context key holding the resolved acting principal.
const principalKey = "principal"

// Handlers contains all HTTP request handlers
type Handlers struct {
	orch      *orchestrator.Orchestrator
	documents service.DocumentService
	audit     service.AuditService
	admin     service.WorkflowAdminService
	authority *delegation.Authority
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	orch *orchestrator.Orchestrator,
	documents service.DocumentService,
	audit service.AuditService,
	admin service.WorkflowAdminService,
	authority *delegation.Authority,
	logger Logger,
) *Handlers {
	return &Handlers{
		orch:      orch,
		documents: documents,
		audit:     audit,
		admin:     admin,
		authority: authority,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Warnings reports side-effect failures of an otherwise committed action.
	Warnings []string `json:"warnings,omitempty"`
}

func principalFrom(c *gin.Context) *entity.Principal {
	return c.MustGet(principalKey).(*entity.Principal)
}

// statusFor maps typed domain errors to HTTP status codes. Unknown errors
// surface as 500.
func statusFor(err error) int {
	var ve *approval.ValidationError
	var pe *approval.PermissionError
	var ce *approval.ConflictError
	var ge *approval.ConfigurationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &pe):
		return http.StatusForbidden
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ge):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	h.logger.Error(msg, "error", err)
	c.JSON(statusFor(err), Response{Success: false, Error: err.Error()})
}

func transitionResponse(result *orchestrator.Result) Response {
	resp := Response{Success: true, Data: result.Document}
	for _, w := range result.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateDocumentRequest is the payload for creating a purchase order or
// uploading an invoice.
type CreateDocumentRequest struct {
	Reference   string `json:"reference" binding:"required"`
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
}

// CreatePurchaseOrder handles POST /api/purchase-orders
func (h *Handlers) CreatePurchaseOrder(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid amount"})
		return
	}

	doc, err := h.documents.CreatePurchaseOrder(c.Request.Context(), principalFrom(c), req.Reference, req.Description, amount)
	if err != nil {
		h.fail(c, err, "Failed to create purchase order")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// UploadInvoice handles POST /api/invoices
func (h *Handlers) UploadInvoice(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid amount"})
		return
	}

	doc, err := h.documents.UploadInvoice(c.Request.Context(), principalFrom(c), req.Reference, amount)
	if err != nil {
		h.fail(c, err, "Failed to upload invoice")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// ListDocumentsRequest represents query parameters for listing documents
type ListDocumentsRequest struct {
	Status string `form:"status" binding:"required"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	var req ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	docs, err := h.documents.ListByStatus(c.Request.Context(), principalFrom(c).OrganisationID, req.Status, req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err, "Failed to list documents")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "document not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

// GetTrail handles GET /api/documents/:id/trail
func (h *Handlers) GetTrail(c *gin.Context) {
	entries, err := h.audit.Trail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to load audit trail")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// Submit handles POST /api/documents/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	result, err := h.orch.Submit(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		h.fail(c, err, "Submit failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// Approve handles POST /api/documents/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	result, err := h.orch.Approve(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		h.fail(c, err, "Approve failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// RejectRequest is the payload for rejecting a document.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject handles POST /api/documents/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "a rejection reason is required"})
		return
	}

	result, err := h.orch.Reject(c.Request.Context(), c.Param("id"), principalFrom(c), req.Reason)
	if err != nil {
		h.fail(c, err, "Reject failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// Cancel handles POST /api/documents/:id/cancel
func (h *Handlers) Cancel(c *gin.Context) {
	result, err := h.orch.Cancel(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		h.fail(c, err, "Cancel failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// Resubmit handles POST /api/documents/:id/resubmit
func (h *Handlers) Resubmit(c *gin.Context) {
	result, err := h.orch.Resubmit(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		h.fail(c, err, "Resubmit failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// MatchRequest is the payload for matching an invoice to a purchase order.
type MatchRequest struct {
	PurchaseOrderID string `json:"purchase_order_id" binding:"required"`
	Note            string `json:"note"`
}

// MatchInvoice handles POST /api/documents/:id/match
func (h *Handlers) MatchInvoice(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "purchase_order_id is required"})
		return
	}

	result, err := h.orch.MatchInvoice(c.Request.Context(), c.Param("id"), req.PurchaseOrderID, principalFrom(c), req.Note)
	if err != nil {
		h.fail(c, err, "Match failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// MarkPaid handles POST /api/documents/:id/pay
func (h *Handlers) MarkPaid(c *gin.Context) {
	result, err := h.orch.MarkPaid(c.Request.Context(), c.Param("id"), principalFrom(c))
	if err != nil {
		h.fail(c, err, "Mark paid failed")
		return
	}
	c.JSON(http.StatusOK, transitionResponse(result))
}

// CreateDelegationRequest is the payload for granting a delegation.
type CreateDelegationRequest struct {
	// DelegatorID defaults to the acting principal; only ADMIN may set it to
	// someone else.
	DelegatorID string     `json:"delegator_id"`
	DelegateID  string     `json:"delegate_id" binding:"required"`
	Scope       string     `json:"scope" binding:"required"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// CreateDelegation handles POST /api/delegations
func (h *Handlers) CreateDelegation(c *gin.Context) {
	var req CreateDelegationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	scope := approval.Scope(req.Scope)
	if scope != approval.ScopePOApproval && scope != approval.ScopeInvoiceApproval {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown delegation scope"})
		return
	}

	actor := principalFrom(c)
	delegatorID := actor.ID
	if req.DelegatorID != "" && req.DelegatorID != actor.ID {
		if actor.Role != approval.RoleAdmin {
			c.JSON(http.StatusForbidden, Response{Success: false, Error: "only an administrator may delegate on behalf of another principal"})
			return
		}
		delegatorID = req.DelegatorID
	}

	d, err := h.authority.CreateDelegation(c.Request.Context(), delegatorID, req.DelegateID, scope, req.StartsAt, req.EndsAt)
	if err != nil {
		h.fail(c, err, "Failed to create delegation")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: d})
}

// ListDelegations handles GET /api/delegations
func (h *Handlers) ListDelegations(c *gin.Context) {
	scope := approval.Scope(c.DefaultQuery("scope", string(approval.ScopePOApproval)))
	actor := principalFrom(c)

	delegatorID := c.Query("delegator_id")
	if delegatorID == "" {
		delegatorID = actor.ID
	}
	if delegatorID != actor.ID && actor.Role != approval.RoleAdmin {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "only an administrator may list another principal's delegations"})
		return
	}

	ds, err := h.authority.ListForDelegator(c.Request.Context(), delegatorID, scope)
	if err != nil {
		h.fail(c, err, "Failed to list delegations")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ds})
}

// RevokeDelegation handles DELETE /api/delegations/:id
func (h *Handlers) RevokeDelegation(c *gin.Context) {
	if err := h.authority.RevokeDelegation(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to revoke delegation")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// requireAdmin rejects callers without workflow administration rights.
func (h *Handlers) requireAdmin(c *gin.Context) bool {
	actor := principalFrom(c)
	if actor.Role != approval.RoleMD && actor.Role != approval.RoleAdmin {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "workflow administration requires MD or ADMIN"})
		return false
	}
	return true
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var wf entity.ApprovalWorkflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	wf.OrganisationID = principalFrom(c).OrganisationID

	created, err := h.admin.CreateWorkflow(c.Request.Context(), &wf)
	if err != nil {
		h.fail(c, err, "Failed to create workflow")
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	wfs, err := h.admin.ListWorkflows(c.Request.Context(), principalFrom(c).OrganisationID)
	if err != nil {
		h.fail(c, err, "Failed to list workflows")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: wfs})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	wf, err := h.admin.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "workflow not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// UpdateWorkflow handles PUT /api/workflows/:id
func (h *Handlers) UpdateWorkflow(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var wf entity.ApprovalWorkflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	wf.ID = c.Param("id")
	wf.OrganisationID = principalFrom(c).OrganisationID

	if err := h.admin.UpdateWorkflow(c.Request.Context(), &wf); err != nil {
		h.fail(c, err, "Failed to update workflow")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: wf})
}

// DeleteWorkflow handles DELETE /api/workflows/:id
func (h *Handlers) DeleteWorkflow(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	if err := h.admin.DeleteWorkflow(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete workflow")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	settings, err := h.admin.GetSettings(c.Request.Context(), principalFrom(c).OrganisationID)
	if err != nil {
		h.fail(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}

// UpdateSettings handles PUT /api/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var settings entity.WorkflowSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	settings.OrganisationID = principalFrom(c).OrganisationID

	if err := h.admin.UpdateSettings(c.Request.Context(), &settings); err != nil {
		h.fail(c, err, "Failed to update settings")
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: settings})
}
