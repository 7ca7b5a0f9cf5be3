package handlers

import (
	"errors"
	"strconv"

	"coverhub/internal/core/domain"
	"coverhub/internal/core/services"
	"coverhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ApprovalHandler handles approval workflow endpoints
type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// DecisionRequest represents approve request body
type DecisionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// RejectRequest represents reject request body
type RejectRequest struct {
	Reason string `json:"reason"`
}

// RequestChangesRequest represents request-changes request body
type RequestChangesRequest struct {
	ChangesRequired string `json:"changes_required"`
}

// AssignRequest represents manual assignment request body
type AssignRequest struct {
	ManagerID uint   `json:"manager_id"`
	Notes     string `json:"notes,omitempty"`
}

// Pending lists open approvals
// @Summary List pending approvals
// @Description List open reviews, oldest submission first
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param manager_id query int false "Scope to one manager"
// @Success 200 {object} response.Response
// @Router /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *fiber.Ctx) error {
	var managerID *uint
	if v := c.Query("manager_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid manager_id")
		}
		mid := uint(id)
		managerID = &mid
	}

	details, err := h.approvalService.GetPendingApprovals(c.UserContext(), managerID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list pending approvals")
	}

	return response.Success(c, "Pending approvals retrieved successfully", details)
}

// Get returns one approval detail view
// @Summary Get approval
// @Description Get an approval with policy, document and history detail
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	detail, err := h.approvalService.GetByID(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrApprovalNotFound) {
			return response.NotFound(c, "Approval not found")
		}
		return response.InternalServerError(c, "Failed to get approval")
	}

	return response.Success(c, "Approval retrieved successfully", detail)
}

// Approve approves a pending review
// @Summary Approve policy
// @Description Approve an open review; the policy becomes active
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Param body body DecisionRequest false "Approval notes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	var req DecisionRequest
	_ = c.BodyParser(&req)

	managerID, _ := c.Locals("partyID").(uint)

	detail, err := h.approvalService.Approve(c.UserContext(), uint(id), managerID, req.Notes)
	if err != nil {
		return h.approvalError(c, err, "Failed to approve policy")
	}

	return response.Success(c, "Policy approved", detail)
}

// Reject rejects a pending review
// @Summary Reject policy
// @Description Reject an open review with a mandatory reason
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	managerID, _ := c.Locals("partyID").(uint)

	detail, err := h.approvalService.Reject(c.UserContext(), uint(id), managerID, req.Reason)
	if err != nil {
		return h.approvalError(c, err, "Failed to reject policy")
	}

	return response.Success(c, "Policy rejected", detail)
}

// RequestChanges sends a review back to the broker
// @Summary Request changes
// @Description Return an open review to the broker with required changes
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Param body body RequestChangesRequest true "Changes required"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /approvals/{id}/request-changes [post]
func (h *ApprovalHandler) RequestChanges(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	var req RequestChangesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	managerID, _ := c.Locals("partyID").(uint)

	detail, err := h.approvalService.RequestChanges(c.UserContext(), uint(id), managerID, req.ChangesRequired)
	if err != nil {
		return h.approvalError(c, err, "Failed to request changes")
	}

	return response.Success(c, "Changes requested", detail)
}

// Assign manually assigns a review to a manager
// @Summary Assign manager
// @Description Assign or reassign an open review to a manager
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Param body body AssignRequest true "Target manager"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /approvals/{id}/assign [post]
func (h *ApprovalHandler) Assign(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ManagerID == 0 {
		return response.BadRequest(c, "manager_id is required")
	}

	actorID, _ := c.Locals("partyID").(uint)

	detail, err := h.approvalService.AssignManager(c.UserContext(), uint(id), req.ManagerID, actorID, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidManager) {
			return response.BadRequest(c, "Manager is not eligible for assignment")
		}
		return h.approvalError(c, err, "Failed to assign manager")
	}

	return response.Success(c, "Manager assigned", detail)
}

// History returns a policy's full audit trail
// @Summary Get approval history
// @Description List every transition recorded for the approval's policy
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /approvals/{id}/history [get]
func (h *ApprovalHandler) History(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid approval ID")
	}

	detail, err := h.approvalService.GetByID(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrApprovalNotFound) {
			return response.NotFound(c, "Approval not found")
		}
		return response.InternalServerError(c, "Failed to get approval history")
	}

	history, err := h.approvalService.GetHistory(c.UserContext(), detail.Approval.PolicyID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get approval history")
	}

	return response.Success(c, "Approval history retrieved successfully", history)
}

// Statistics returns review throughput stats
// @Summary Approval statistics
// @Description Pending/under-review counts, today's decisions, average review time, approval rate
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Param manager_id query int false "Scope to one manager"
// @Success 200 {object} response.Response
// @Router /approvals/statistics [get]
func (h *ApprovalHandler) Statistics(c *fiber.Ctx) error {
	var managerID *uint
	if v := c.Query("manager_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid manager_id")
		}
		mid := uint(id)
		managerID = &mid
	}

	stats, err := h.approvalService.GetStatistics(c.UserContext(), managerID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute statistics")
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}

func (h *ApprovalHandler) approvalError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrApprovalNotFound):
		return response.NotFound(c, "Approval not found")
	case errors.Is(err, domain.ErrManagerNotFound):
		return response.NotFound(c, "Manager not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Forbidden(c, "Manager does not have approval permission")
	case errors.Is(err, domain.ErrInvalidState):
		return response.BadRequest(c, "Approval is not open for this operation")
	case errors.Is(err, domain.ErrReasonRequired):
		return response.BadRequest(c, "A non-empty reason is required")
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, "Approval was modified concurrently, please retry")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return response.ServiceUnavailable(c, "Store temporarily unavailable")
	default:
		return response.InternalServerError(c, fallback)
	}
}
