package handlers

import (
	"errors"
	"strconv"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"
	"coverhub/internal/core/services"
	"coverhub/internal/pkg/pagination"
	"coverhub/internal/pkg/response"
	"coverhub/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// PolicyHandler handles policy endpoints
type PolicyHandler struct {
	policyService   *services.PolicyService
	approvalService *services.ApprovalService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policyService *services.PolicyService, approvalService *services.ApprovalService) *PolicyHandler {
	return &PolicyHandler{
		policyService:   policyService,
		approvalService: approvalService,
	}
}

// SubmitRequest represents policy submission request body
type SubmitRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Create handles draft policy creation
// @Summary Create policy
// @Description Create a draft policy owned by the calling broker
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreatePolicyInput true "Policy data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /policies [post]
func (h *PolicyHandler) Create(c *fiber.Ctx) error {
	var input services.CreatePolicyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.ValidateStruct(&input); err != nil {
		return response.BadRequest(c, validation.Message(err))
	}

	brokerID, ok := c.Locals("partyID").(uint)
	if !ok || brokerID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	policy, err := h.policyService.Create(c.UserContext(), &input, &brokerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHolderNotFound):
			return response.NotFound(c, "Policyholder not found")
		case errors.Is(err, domain.ErrInvalidServiceType):
			return response.BadRequest(c, "Invalid or inactive service type")
		default:
			return response.InternalServerError(c, "Failed to create policy")
		}
	}

	return response.Created(c, "Policy created successfully", policy.ToResponse())
}

// List handles policy listing
// @Summary List policies
// @Description List policies with pagination; brokers and holders see their own
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Response
// @Router /policies [get]
func (h *PolicyHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.ListFilter{Status: c.Query("status")}

	// Brokers and holders are scoped to their own policies; managers and
	// admins see everything.
	role, _ := c.Locals("role").(string)
	partyID, _ := c.Locals("partyID").(uint)
	switch role {
	case "BROKER":
		filter.BrokerID = &partyID
	case "POLICYHOLDER":
		filter.PolicyHolderID = &partyID
	}

	policies, total, err := h.policyService.List(c.UserContext(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list policies")
	}

	items := make([]*models.PolicyResponse, len(policies))
	for i, p := range policies {
		items[i] = p.ToResponse()
	}

	return response.Success(c, "Policies retrieved successfully", pagination.NewResponse(items, params, total))
}

// Get handles single policy retrieval
// @Summary Get policy
// @Description Get a policy by ID
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [get]
func (h *PolicyHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid policy ID")
	}

	policy, err := h.policyService.GetByID(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrPolicyNotFound) {
			return response.NotFound(c, "Policy not found")
		}
		return response.InternalServerError(c, "Failed to get policy")
	}

	if !h.canView(c, policy) {
		return response.Forbidden(c, "You don't have permission to view this policy")
	}

	return response.Success(c, "Policy retrieved successfully", policy.ToResponse())
}

// Update handles draft policy editing
// @Summary Update draft policy
// @Description Edit a policy that has not entered review (owning broker only)
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body services.UpdateDraftInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [put]
func (h *PolicyHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid policy ID")
	}

	var input services.UpdateDraftInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.ValidateStruct(&input); err != nil {
		return response.BadRequest(c, validation.Message(err))
	}

	brokerID, _ := c.Locals("partyID").(uint)

	policy, err := h.policyService.UpdateDraft(c.UserContext(), uint(id), brokerID, &input)
	if err != nil {
		return h.policyError(c, err, "Failed to update policy")
	}

	return response.Success(c, "Policy updated successfully", policy.ToResponse())
}

// Cancel handles draft policy cancellation
// @Summary Cancel policy
// @Description Cancel a policy that has not entered review (owning broker only)
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id}/cancel [post]
func (h *PolicyHandler) Cancel(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid policy ID")
	}

	brokerID, _ := c.Locals("partyID").(uint)

	policy, err := h.policyService.Cancel(c.UserContext(), uint(id), brokerID)
	if err != nil {
		return h.policyError(c, err, "Failed to cancel policy")
	}

	return response.Success(c, "Policy cancelled successfully", policy.ToResponse())
}

// Submit handles policy submission for approval
// @Summary Submit policy for approval
// @Description Submit a draft policy into the review workflow
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body SubmitRequest false "Submission notes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /policies/{id}/submit [post]
func (h *PolicyHandler) Submit(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid policy ID")
	}

	var req SubmitRequest
	_ = c.BodyParser(&req)

	brokerID, _ := c.Locals("partyID").(uint)

	detail, err := h.approvalService.SubmitForApproval(c.UserContext(), uint(id), brokerID, req.Notes)
	if err != nil {
		if de, ok := domain.IsDocumentsIncomplete(err); ok {
			return response.ErrorWithData(c, fiber.StatusBadRequest, "Required documents incomplete", fiber.Map{
				"missing_documents": de.Missing,
			})
		}
		switch {
		case errors.Is(err, domain.ErrPolicyNotFound):
			return response.NotFound(c, "Policy not found")
		case errors.Is(err, domain.ErrNotPolicyOwner):
			return response.Forbidden(c, "Policy belongs to another broker")
		case errors.Is(err, domain.ErrInvalidState):
			return response.BadRequest(c, "Policy cannot be submitted in its current status")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Policy was modified concurrently, please retry")
		default:
			return response.InternalServerError(c, "Failed to submit policy")
		}
	}

	return response.Success(c, "Policy submitted for approval", detail)
}

func (h *PolicyHandler) policyError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrPolicyNotFound):
		return response.NotFound(c, "Policy not found")
	case errors.Is(err, domain.ErrNotPolicyOwner):
		return response.Forbidden(c, "Policy belongs to another broker")
	case errors.Is(err, domain.ErrInvalidState):
		return response.BadRequest(c, "Operation not valid for current policy status")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return response.ServiceUnavailable(c, "Store temporarily unavailable")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// canView scopes single-policy reads: brokers to their book, holders to
// their own policies
func (h *PolicyHandler) canView(c *fiber.Ctx, policy *models.Policy) bool {
	role, _ := c.Locals("role").(string)
	partyID, _ := c.Locals("partyID").(uint)

	switch role {
	case "BROKER":
		return policy.BrokerID == partyID
	case "POLICYHOLDER":
		return policy.PolicyHolderID == partyID
	}
	return true
}
