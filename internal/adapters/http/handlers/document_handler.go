package handlers

import (
	"errors"
	"strconv"

	"coverhub/internal/core/domain"
	"coverhub/internal/core/services"
	"coverhub/internal/pkg/response"
	"coverhub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// DocumentHandler handles document endpoints
type DocumentHandler struct {
	documentService    *services.DocumentService
	requirementService *services.RequirementService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *services.DocumentService, requirementService *services.RequirementService) *DocumentHandler {
	return &DocumentHandler{
		documentService:    documentService,
		requirementService: requirementService,
	}
}

// VerifyRequest represents document verification request body
type VerifyRequest struct {
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// Upload records an uploaded document
// @Summary Upload document metadata
// @Description Record an uploaded document as pending verification
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UploadInput true "Document metadata"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	var input services.UploadInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.ValidateStruct(&input); err != nil {
		return response.BadRequest(c, validation.Message(err))
	}

	uploaderID, _ := c.Locals("userID").(uint)

	doc, err := h.documentService.Upload(c.UserContext(), &input, uploaderID)
	if err != nil {
		if errors.Is(err, services.ErrHolderNotFound) {
			return response.NotFound(c, "Policyholder not found")
		}
		return response.InternalServerError(c, "Failed to record document")
	}

	return response.Created(c, "Document recorded successfully", doc)
}

// Requirements resolves the document checklist for a holder
// @Summary Resolve document requirements
// @Description Per-requirement uploaded/verified status for a holder and service type
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param service_code query string true "Service type code"
// @Param policy_holder_id query int true "Policyholder ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /documents/requirements [get]
func (h *DocumentHandler) Requirements(c *fiber.Ctx) error {
	serviceCode := c.Query("service_code")
	if serviceCode == "" {
		return response.BadRequest(c, "service_code is required")
	}

	holderID, err := strconv.ParseUint(c.Query("policy_holder_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid policy_holder_id")
	}

	result, err := h.requirementService.Resolve(c.UserContext(), serviceCode, uint(holderID))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidServiceType) {
			return response.BadRequest(c, "Invalid or inactive service type")
		}
		return response.InternalServerError(c, "Failed to resolve requirements")
	}

	return response.Success(c, "Requirements resolved successfully", result)
}

// Verify settles a pending document
// @Summary Verify document
// @Description Mark a pending document verified, or rejected with a reason
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param body body VerifyRequest true "Verification outcome"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id}/verify [post]
func (h *DocumentHandler) Verify(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	verifierID, _ := c.Locals("userID").(uint)

	doc, err := h.documentService.Verify(c.UserContext(), uint(id), verifierID, req.Approved, req.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			return response.NotFound(c, "Document not found")
		case errors.Is(err, services.ErrDocumentNotPending):
			return response.BadRequest(c, "Document has already been reviewed")
		case errors.Is(err, domain.ErrReasonRequired):
			return response.BadRequest(c, "Rejection reason is required")
		case errors.Is(err, domain.ErrUnauthorized):
			return response.Forbidden(c, "Only managers can verify documents")
		default:
			return response.InternalServerError(c, "Failed to verify document")
		}
	}

	return response.Success(c, "Document reviewed successfully", doc)
}

// My lists the calling policyholder's documents
// @Summary List my documents
// @Description List the calling policyholder's documents, newest first
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /documents/my [get]
func (h *DocumentHandler) My(c *fiber.Ctx) error {
	holderID, ok := c.Locals("partyID").(uint)
	if !ok || holderID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	docs, err := h.documentService.ListByHolder(c.UserContext(), holderID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list documents")
	}

	return response.Success(c, "Documents retrieved successfully", docs)
}
