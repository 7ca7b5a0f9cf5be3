package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"
	"coverhub/internal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PolicyService handles policy CRUD. Review transitions live in
// ApprovalService; this stays thin plumbing over the store.
type PolicyService struct {
	policyRepo      *repositories.PolicyRepository
	holderRepo      *repositories.PolicyHolderRepository
	serviceTypeRepo *repositories.ServiceTypeRepository
	assignmentSvc   *AssignmentService
}

// NewPolicyService creates a new policy service
func NewPolicyService(
	policyRepo *repositories.PolicyRepository,
	holderRepo *repositories.PolicyHolderRepository,
	serviceTypeRepo *repositories.ServiceTypeRepository,
	assignmentSvc *AssignmentService,
) *PolicyService {
	return &PolicyService{
		policyRepo:      policyRepo,
		holderRepo:      holderRepo,
		serviceTypeRepo: serviceTypeRepo,
		assignmentSvc:   assignmentSvc,
	}
}

// CreatePolicyInput represents create policy input
type CreatePolicyInput struct {
	PolicyHolderID  uint       `json:"policy_holder_id" validate:"required"`
	ServiceTypeCode string     `json:"service_type_code" validate:"required"`
	CoverageAmount  float64    `json:"coverage_amount" validate:"required,gt=0"`
	PremiumAmount   float64    `json:"premium_amount" validate:"required,gt=0"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// Create creates a draft policy. When brokerID is nil the policy is routed
// to the next broker in the round-robin ring.
func (s *PolicyService) Create(ctx context.Context, input *CreatePolicyInput, brokerID *uint) (*models.Policy, error) {
	holder, err := s.holderRepo.GetByID(ctx, input.PolicyHolderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHolderNotFound
		}
		return nil, err
	}

	serviceType, err := s.serviceTypeRepo.GetByCode(ctx, input.ServiceTypeCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidServiceType
		}
		return nil, err
	}

	var assignedBrokerID uint
	if brokerID != nil {
		assignedBrokerID = *brokerID
	} else {
		broker, err := s.assignmentSvc.NextBroker(ctx)
		if err != nil {
			return nil, err
		}
		assignedBrokerID = broker.ID
	}

	policy := &models.Policy{
		PolicyNumber:   newPolicyNumber(),
		PolicyHolderID: holder.ID,
		BrokerID:       assignedBrokerID,
		ServiceTypeID:  serviceType.ID,
		CoverageAmount: input.CoverageAmount,
		PremiumAmount:  input.PremiumAmount,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Status:         models.PolicyStatusDraft,
		Notes:          input.Notes,
	}

	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, err
	}

	logger.Infof("Policy %s created for holder %d (broker %d)", policy.PolicyNumber, holder.ID, assignedBrokerID)
	return policy, nil
}

// GetByID gets a policy by ID
func (s *PolicyService) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, err
	}
	return policy, nil
}

// List lists policies with pagination and optional filters
func (s *PolicyService) List(ctx context.Context, filter repositories.ListFilter, offset, limit int) ([]*models.Policy, int64, error) {
	return s.policyRepo.List(ctx, filter, offset, limit)
}

// UpdateDraftInput represents editable draft fields
type UpdateDraftInput struct {
	CoverageAmount *float64   `json:"coverage_amount,omitempty" validate:"omitempty,gt=0"`
	PremiumAmount  *float64   `json:"premium_amount,omitempty" validate:"omitempty,gt=0"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// UpdateDraft edits a policy that has not entered review. The owning broker
// only; anything past the draft family is immutable here.
func (s *PolicyService) UpdateDraft(ctx context.Context, id, brokerID uint, input *UpdateDraftInput) (*models.Policy, error) {
	policy, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.BrokerID != brokerID {
		return nil, domain.ErrNotPolicyOwner
	}
	if !policy.CanSubmit() {
		return nil, domain.ErrInvalidState
	}

	if input.CoverageAmount != nil {
		policy.CoverageAmount = *input.CoverageAmount
	}
	if input.PremiumAmount != nil {
		policy.PremiumAmount = *input.PremiumAmount
	}
	if input.StartDate != nil {
		policy.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		policy.EndDate = input.EndDate
	}
	if input.Notes != nil {
		policy.Notes = *input.Notes
	}

	if err := s.policyRepo.Update(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Cancel cancels a policy that has not entered review. A submitted policy
// leaves the workflow only through the review verbs.
func (s *PolicyService) Cancel(ctx context.Context, id, brokerID uint) (*models.Policy, error) {
	policy, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.BrokerID != brokerID {
		return nil, domain.ErrNotPolicyOwner
	}
	if !policy.CanSubmit() {
		return nil, domain.ErrInvalidState
	}

	if err := s.policyRepo.UpdateStatus(ctx, id, models.PolicyStatusCancelled); err != nil {
		return nil, err
	}
	policy.Status = models.PolicyStatusCancelled

	logger.Infof("Policy %s cancelled by broker %d", policy.PolicyNumber, brokerID)
	return policy, nil
}

// newPolicyNumber builds POL-<year>-<uuid fragment>, assigned once at create
func newPolicyNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return fmt.Sprintf("POL-%d-%s", time.Now().Year(), frag)
}
