package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"
	"coverhub/internal/pkg/logger"

	"gorm.io/gorm"
)

// ApprovalService drives the policy review workflow. Every mutation runs in
// one database transaction covering the policy status, the approval record
// and the history append, so a crash can never leave a transition without
// its audit row. Approval writes carry an optimistic version check; losing
// the race surfaces as ErrConflict and rolls the whole transition back.
type ApprovalService struct {
	db             *gorm.DB
	policyRepo     *repositories.PolicyRepository
	approvalRepo   *repositories.ApprovalRepository
	historyRepo    *repositories.HistoryRepository
	managerRepo    *repositories.ManagerRepository
	requirementSvc *RequirementService
	assignmentSvc  *AssignmentService
	notifySvc      *NotificationService
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	db *gorm.DB,
	policyRepo *repositories.PolicyRepository,
	approvalRepo *repositories.ApprovalRepository,
	historyRepo *repositories.HistoryRepository,
	managerRepo *repositories.ManagerRepository,
	requirementSvc *RequirementService,
	assignmentSvc *AssignmentService,
	notifySvc *NotificationService,
) *ApprovalService {
	return &ApprovalService{
		db:             db,
		policyRepo:     policyRepo,
		approvalRepo:   approvalRepo,
		historyRepo:    historyRepo,
		managerRepo:    managerRepo,
		requirementSvc: requirementSvc,
		assignmentSvc:  assignmentSvc,
		notifySvc:      notifySvc,
	}
}

// ApprovalDetail is the detail view returned by read and mutate operations
type ApprovalDetail struct {
	Approval  *models.PolicyApproval          `json:"approval"`
	Policy    *models.PolicyResponse          `json:"policy"`
	Documents *domain.RequirementResult       `json:"documents,omitempty"`
	History   []*models.PolicyApprovalHistory `json:"history,omitempty"`
}

// SubmitForApproval submits a policy for review. The caller must be the
// owning broker and the policy must be in a submittable status. All required
// documents must be uploaded and verified; otherwise nothing is mutated and
// the error names the missing documents. When an approving manager is
// available the review is assigned immediately.
func (s *ApprovalService) SubmitForApproval(ctx context.Context, policyID, brokerID uint, notes string) (*ApprovalDetail, error) {
	policy, err := s.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, err
	}

	if policy.BrokerID != brokerID {
		return nil, domain.ErrNotPolicyOwner
	}
	if !policy.CanSubmit() {
		return nil, domain.ErrInvalidState
	}

	// Document gate, before anything is written
	result, err := s.requirementSvc.ResolveByServiceTypeID(ctx, policy.ServiceTypeID, serviceCode(policy), policy.PolicyHolderID)
	if err != nil {
		return nil, err
	}
	if missing := result.MissingRequired(); len(missing) > 0 {
		return nil, &domain.DocumentsIncompleteError{Missing: missing}
	}

	// Manager may legitimately be unavailable; the submission still goes
	// through and waits unassigned.
	manager, err := s.assignmentSvc.LeastLoadedManager(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoManagersAvailable) {
		return nil, err
	}

	now := time.Now()
	prevPolicyStatus := policy.Status
	var approval *models.PolicyApproval

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approvalRepo := s.approvalRepo.WithTx(tx)
		historyRepo := s.historyRepo.WithTx(tx)
		policyRepo := repositories.NewPolicyRepository(tx)

		approval, err = approvalRepo.GetByPolicyID(ctx, policyID)
		switch {
		case err == nil:
			// Resubmission reuses the row; the old cycle's trail stays in
			// the history table.
			if approval.IsOpen() {
				return domain.ErrInvalidState
			}
			resetApproval(approval, brokerID, now)
			// The document gate passed above
			approval.DocumentsVerified = true
			ok, err := approvalRepo.Save(ctx, approval)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrConflict
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			approval = &models.PolicyApproval{
				PolicyID:          policyID,
				Status:            models.ApprovalStatusPending,
				SubmittedBy:       brokerID,
				SubmittedAt:       now,
				DocumentsVerified: true,
			}
			if err := approvalRepo.Create(ctx, approval); err != nil {
				return err
			}
		default:
			return err
		}

		if err := policyRepo.UpdateStatus(ctx, policyID, models.PolicyStatusSubmitted); err != nil {
			return err
		}
		policy.Status = models.PolicyStatusSubmitted

		if err := historyRepo.Create(ctx, &models.PolicyApprovalHistory{
			ApprovalID:     approval.ID,
			PolicyID:       policyID,
			Action:         models.ActionSubmitted,
			ActorID:        brokerID,
			ActorType:      models.ActorTypeBroker,
			PreviousStatus: prevPolicyStatus,
			NewStatus:      models.PolicyStatusSubmitted,
			Notes:          notes,
		}); err != nil {
			return err
		}

		if manager != nil {
			// actor 0 marks a system transition in the audit trail
			if err := s.assignInTx(ctx, tx, approval, policy, manager, 0, models.ActorTypeSystem, "auto-assigned on submission"); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Policy %s submitted by broker %d", policy.PolicyNumber, brokerID)

	if manager != nil {
		s.notifySvc.NotifySubmitted(ctx, policy, manager)
	}

	return s.detail(ctx, approval.ID, true)
}

// Approve marks the review approved and activates the policy
func (s *ApprovalService) Approve(ctx context.Context, approvalID, managerID uint, notes string) (*ApprovalDetail, error) {
	return s.decide(ctx, approvalID, managerID, decision{
		action:         models.ActionApproved,
		approvalStatus: models.ApprovalStatusApproved,
		policyStatus:   models.PolicyStatusActive,
		outcome:        "approved",
		notes:          notes,
	})
}

// Reject closes the review with a mandatory reason
func (s *ApprovalService) Reject(ctx context.Context, approvalID, managerID uint, reason string) (*ApprovalDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrReasonRequired
	}
	return s.decide(ctx, approvalID, managerID, decision{
		action:         models.ActionRejected,
		approvalStatus: models.ApprovalStatusRejected,
		policyStatus:   models.PolicyStatusRejected,
		outcome:        "rejected",
		notes:          reason,
	})
}

// RequestChanges sends the policy back to the broker for rework
func (s *ApprovalService) RequestChanges(ctx context.Context, approvalID, managerID uint, changes string) (*ApprovalDetail, error) {
	if strings.TrimSpace(changes) == "" {
		return nil, domain.ErrReasonRequired
	}
	return s.decide(ctx, approvalID, managerID, decision{
		action:         models.ActionChangesRequested,
		approvalStatus: models.ApprovalStatusRequiresChanges,
		policyStatus:   models.PolicyStatusChangesRequired,
		outcome:        "returned for changes",
		notes:          changes,
	})
}

type decision struct {
	action         string
	approvalStatus string
	policyStatus   string
	outcome        string
	notes          string
}

func (s *ApprovalService) decide(ctx context.Context, approvalID, managerID uint, d decision) (*ApprovalDetail, error) {
	manager, err := s.managerRepo.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrManagerNotFound
		}
		return nil, err
	}
	if !manager.IsActive || !manager.CanApprove {
		return nil, domain.ErrUnauthorized
	}

	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}
	if !approval.IsOpen() {
		return nil, domain.ErrInvalidState
	}

	policy := approval.Policy
	if policy == nil {
		policy, err = s.policyRepo.GetByID(ctx, approval.PolicyID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	prevStatus := approval.Status

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approvalRepo := s.approvalRepo.WithTx(tx)
		historyRepo := s.historyRepo.WithTx(tx)
		policyRepo := repositories.NewPolicyRepository(tx)

		approval.Status = d.approvalStatus
		switch d.action {
		case models.ActionApproved:
			approval.ApprovedBy = &managerID
			approval.ApprovedAt = &now
			approval.ApprovalNotes = d.notes
		case models.ActionRejected:
			approval.RejectedBy = &managerID
			approval.RejectedAt = &now
			approval.RejectionReason = d.notes
		case models.ActionChangesRequested:
			approval.ChangesRequestedBy = &managerID
			approval.ChangesRequestedAt = &now
			approval.ChangesRequired = d.notes
		}

		ok, err := approvalRepo.Save(ctx, approval)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}

		if err := policyRepo.UpdateStatus(ctx, approval.PolicyID, d.policyStatus); err != nil {
			return err
		}

		return historyRepo.Create(ctx, &models.PolicyApprovalHistory{
			ApprovalID:     approval.ID,
			PolicyID:       approval.PolicyID,
			Action:         d.action,
			ActorID:        managerID,
			ActorType:      models.ActorTypeManager,
			PreviousStatus: prevStatus,
			NewStatus:      d.approvalStatus,
			Notes:          d.notes,
		})
	})
	if err != nil {
		return nil, err
	}

	policy.Status = d.policyStatus
	logger.Infof("Policy %s %s by manager %d", policy.PolicyNumber, d.outcome, managerID)
	s.notifySvc.NotifyDecision(ctx, policy, d.outcome, d.notes)

	return s.detail(ctx, approval.ID, false)
}

// AssignManager manually assigns or reassigns an open review
func (s *ApprovalService) AssignManager(ctx context.Context, approvalID, managerID, actorID uint, notes string) (*ApprovalDetail, error) {
	manager, err := s.managerRepo.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrManagerNotFound
		}
		return nil, err
	}
	if !manager.IsActive || !manager.CanApprove {
		return nil, domain.ErrInvalidManager
	}

	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}
	if !approval.IsOpen() {
		return nil, domain.ErrInvalidState
	}

	policy := approval.Policy
	if policy == nil {
		policy, err = s.policyRepo.GetByID(ctx, approval.PolicyID)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.assignInTx(ctx, tx, approval, policy, manager, actorID, models.ActorTypeManager, notes)
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("Policy %s assigned to manager %d", policy.PolicyNumber, managerID)
	s.notifySvc.NotifyReassigned(ctx, policy, manager)

	return s.detail(ctx, approval.ID, false)
}

// assignInTx moves an open approval onto a manager's desk inside the
// caller's transaction
func (s *ApprovalService) assignInTx(ctx context.Context, tx *gorm.DB, approval *models.PolicyApproval, policy *models.Policy, manager *models.Manager, actorID uint, actorType, notes string) error {
	approvalRepo := s.approvalRepo.WithTx(tx)
	historyRepo := s.historyRepo.WithTx(tx)
	policyRepo := repositories.NewPolicyRepository(tx)

	now := time.Now()
	prevStatus := approval.Status

	approval.Status = models.ApprovalStatusUnderReview
	approval.AssignedManagerID = &manager.ID
	approval.AssignedAt = &now

	ok, err := approvalRepo.Save(ctx, approval)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConflict
	}

	if err := policyRepo.UpdateStatus(ctx, approval.PolicyID, models.PolicyStatusUnderReview); err != nil {
		return err
	}
	policy.Status = models.PolicyStatusUnderReview

	return historyRepo.Create(ctx, &models.PolicyApprovalHistory{
		ApprovalID:     approval.ID,
		PolicyID:       approval.PolicyID,
		Action:         models.ActionAssigned,
		ActorID:        actorID,
		ActorType:      actorType,
		PreviousStatus: prevStatus,
		NewStatus:      models.ApprovalStatusUnderReview,
		Notes:          notes,
	})
}

// GetByID returns the detail view for one approval
func (s *ApprovalService) GetByID(ctx context.Context, approvalID uint) (*ApprovalDetail, error) {
	return s.detail(ctx, approvalID, true)
}

// GetByPolicyID returns the detail view for a policy's approval
func (s *ApprovalService) GetByPolicyID(ctx context.Context, policyID uint) (*ApprovalDetail, error) {
	approval, err := s.approvalRepo.GetByPolicyID(ctx, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}
	return s.detail(ctx, approval.ID, true)
}

// GetPendingApprovals lists open reviews, oldest submission first,
// optionally scoped to one manager's desk
func (s *ApprovalService) GetPendingApprovals(ctx context.Context, managerID *uint) ([]*ApprovalDetail, error) {
	approvals, err := s.approvalRepo.ListOpen(ctx, managerID)
	if err != nil {
		return nil, err
	}

	details := make([]*ApprovalDetail, 0, len(approvals))
	for _, a := range approvals {
		d := &ApprovalDetail{Approval: a}
		if a.Policy != nil {
			d.Policy = a.Policy.ToResponse()

			docs, err := s.requirementSvc.ResolveByServiceTypeID(ctx,
				a.Policy.ServiceTypeID, serviceCode(a.Policy), a.Policy.PolicyHolderID)
			if err != nil {
				return nil, err
			}
			d.Documents = docs
		}
		details = append(details, d)
	}
	return details, nil
}

// GetHistory returns the full audit trail for a policy, newest first
func (s *ApprovalService) GetHistory(ctx context.Context, policyID uint) ([]*models.PolicyApprovalHistory, error) {
	if _, err := s.policyRepo.GetByID(ctx, policyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPolicyNotFound
		}
		return nil, err
	}
	return s.historyRepo.ListByPolicyID(ctx, policyID)
}

// GetStatistics computes review throughput over the approvals table,
// optionally scoped to one manager. "Today" is the UTC calendar date.
func (s *ApprovalService) GetStatistics(ctx context.Context, managerID *uint) (*domain.ApprovalStatistics, error) {
	stats := &domain.ApprovalStatistics{}

	var err error
	if stats.PendingCount, err = s.approvalRepo.CountByStatus(ctx, models.ApprovalStatusPending, managerID); err != nil {
		return nil, err
	}
	if stats.UnderReviewCount, err = s.approvalRepo.CountByStatus(ctx, models.ApprovalStatusUnderReview, managerID); err != nil {
		return nil, err
	}

	todayUTC := time.Now().UTC().Truncate(24 * time.Hour)
	if stats.ApprovedTodayCount, err = s.approvalRepo.CountApprovedSince(ctx, todayUTC, managerID); err != nil {
		return nil, err
	}
	if stats.RejectedTodayCount, err = s.approvalRepo.CountRejectedSince(ctx, todayUTC, managerID); err != nil {
		return nil, err
	}

	approved, err := s.approvalRepo.ListApproved(ctx, managerID)
	if err != nil {
		return nil, err
	}

	var totalHours float64
	for _, a := range approved {
		if a.ApprovedAt != nil {
			totalHours += a.ApprovedAt.Sub(a.SubmittedAt).Hours()
		}
	}
	if len(approved) > 0 {
		stats.AverageReviewTimeHours = totalHours / float64(len(approved))
	}

	rejected, err := s.approvalRepo.CountByStatus(ctx, models.ApprovalStatusRejected, managerID)
	if err != nil {
		return nil, err
	}
	if denom := int64(len(approved)) + rejected; denom > 0 {
		stats.ApprovalRate = float64(len(approved)) / float64(denom) * 100
	}

	return stats, nil
}

// detail loads the enriched view after a transition or for a read
func (s *ApprovalService) detail(ctx context.Context, approvalID uint, withDocuments bool) (*ApprovalDetail, error) {
	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrApprovalNotFound
		}
		return nil, err
	}

	d := &ApprovalDetail{Approval: approval}
	if approval.Policy != nil {
		d.Policy = approval.Policy.ToResponse()

		if withDocuments {
			docs, err := s.requirementSvc.ResolveByServiceTypeID(ctx,
				approval.Policy.ServiceTypeID, serviceCode(approval.Policy), approval.Policy.PolicyHolderID)
			if err == nil {
				d.Documents = docs
			}
		}
	}

	history, err := s.historyRepo.ListByApprovalID(ctx, approvalID)
	if err == nil {
		d.History = history
	}

	return d, nil
}

// resetApproval clears the previous cycle's decision fields for resubmission
func resetApproval(a *models.PolicyApproval, brokerID uint, now time.Time) {
	a.Status = models.ApprovalStatusPending
	a.SubmittedBy = brokerID
	a.SubmittedAt = now
	a.AssignedManagerID = nil
	a.AssignedAt = nil
	a.DocumentsVerified = false
	a.ApprovedBy = nil
	a.ApprovedAt = nil
	a.ApprovalNotes = ""
	a.RejectedBy = nil
	a.RejectedAt = nil
	a.RejectionReason = ""
	a.ChangesRequestedBy = nil
	a.ChangesRequestedAt = nil
	a.ChangesRequired = ""
}

func serviceCode(p *models.Policy) string {
	if p.ServiceType != nil {
		return p.ServiceType.Code
	}
	return ""
}
