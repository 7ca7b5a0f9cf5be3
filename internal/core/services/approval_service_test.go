package services

import (
	"context"
	"testing"
	"time"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestSubmitForApproval_MovesPolicyUnderReview(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	detail, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "first submission")
	require.NoError(t, err)

	require.Equal(t, models.ApprovalStatusUnderReview, detail.Approval.Status)
	require.NotNil(t, detail.Approval.AssignedManagerID)
	require.Equal(t, manager.ID, *detail.Approval.AssignedManagerID)
	require.NotNil(t, detail.Approval.AssignedAt)

	stored, err := f.policyRepo.GetByID(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.PolicyStatusUnderReview, stored.Status)

	history, err := f.approvalSvc.GetHistory(ctx, policy.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.ActionAssigned, history[0].Action)
	require.Equal(t, models.ActorTypeSystem, history[0].ActorType)
	require.Equal(t, models.ActionSubmitted, history[1].Action)
	require.Equal(t, models.ActorTypeBroker, history[1].ActorType)
	require.Equal(t, broker.ID, history[1].ActorID)
	require.Equal(t, "first submission", history[1].Notes)
}

func TestSubmitForApproval_AssignsLeastLoadedManager(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	busy := f.createManager(t, "busy", true)
	idle := f.createManager(t, "idle", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)

	// One open review already sits on the busy manager's desk
	otherPolicy := f.createPolicy(t, holder, broker, st, models.PolicyStatusUnderReview)
	require.NoError(t, f.db.Create(&models.PolicyApproval{
		PolicyID:          otherPolicy.ID,
		Status:            models.ApprovalStatusUnderReview,
		SubmittedBy:       broker.ID,
		SubmittedAt:       time.Now(),
		AssignedManagerID: &busy.ID,
	}).Error)

	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)
	detail, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	require.Equal(t, idle.ID, *detail.Approval.AssignedManagerID)
}

func TestSubmitForApproval_MissingRequiredDocument(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.addDocument(t, holder.ID, "ID_CARD", models.DocumentStatusVerified)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	de, ok := domain.IsDocumentsIncomplete(err)
	require.True(t, ok, "expected documents-incomplete error, got %v", err)
	require.Equal(t, []string{"Vehicle registration"}, de.Missing)

	// Nothing was written
	stored, err := f.policyRepo.GetByID(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.PolicyStatusDraft, stored.Status)

	var count int64
	require.NoError(t, f.db.Model(&models.PolicyApproval{}).Where("policy_id = ?", policy.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitForApproval_UnverifiedDocumentBlocks(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.addDocument(t, holder.ID, "ID_CARD", models.DocumentStatusVerified)
	f.addDocument(t, holder.ID, "VEHICLE_REGISTRATION", models.DocumentStatusPending)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	de, ok := domain.IsDocumentsIncomplete(err)
	require.True(t, ok, "expected documents-incomplete error, got %v", err)
	require.Contains(t, de.Missing, "Vehicle registration")
}

func TestSubmitForApproval_NotOwner(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	owner := f.createBroker(t, "owner")
	other := f.createBroker(t, "other")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, owner, st, models.PolicyStatusDraft)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, other.ID, "")
	require.ErrorIs(t, err, domain.ErrNotPolicyOwner)
}

func TestSubmitForApproval_WrongStatus(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusActive)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSubmitForApproval_PolicyNotFound(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.approvalSvc.SubmitForApproval(context.Background(), 9999, 1, "")
	require.ErrorIs(t, err, domain.ErrPolicyNotFound)
}

func TestSubmitForApproval_NoManagerWaitsUnassigned(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	detail, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, detail.Approval.Status)
	require.Nil(t, detail.Approval.AssignedManagerID)

	stored, err := f.policyRepo.GetByID(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.PolicyStatusSubmitted, stored.Status)
}

func TestApprove_ActivatesPolicy(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)

	detail, err := f.approvalSvc.Approve(ctx, submitted.Approval.ID, manager.ID, "all good")
	require.NoError(t, err)

	require.Equal(t, models.ApprovalStatusApproved, detail.Approval.Status)
	require.Equal(t, manager.ID, *detail.Approval.ApprovedBy)
	require.NotNil(t, detail.Approval.ApprovedAt)
	require.Equal(t, "all good", detail.Approval.ApprovalNotes)
	require.Equal(t, models.PolicyStatusActive, detail.Policy.Status)

	history, err := f.approvalSvc.GetHistory(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActionApproved, history[0].Action)
	require.Equal(t, manager.ID, history[0].ActorID)
}

func TestApprove_ClosedApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	_, err = f.approvalSvc.Approve(ctx, submitted.Approval.ID, manager.ID, "")
	require.NoError(t, err)

	_, err = f.approvalSvc.Approve(ctx, submitted.Approval.ID, manager.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestApprove_ManagerWithoutPermission(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	approver := f.createManager(t, "approver", true)
	viewer := f.createManager(t, "viewer", false)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	require.Equal(t, approver.ID, *submitted.Approval.AssignedManagerID)

	_, err = f.approvalSvc.Approve(ctx, submitted.Approval.ID, viewer.ID, "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.approvalSvc.Approve(ctx, submitted.Approval.ID, 9999, "")
	require.ErrorIs(t, err, domain.ErrManagerNotFound)

	// The review is untouched
	current, err := f.approvalRepo.GetByID(ctx, submitted.Approval.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusUnderReview, current.Status)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	_, err := f.approvalSvc.Reject(ctx, 1, 1, "")
	require.ErrorIs(t, err, domain.ErrReasonRequired)
	_, err = f.approvalSvc.Reject(ctx, 1, 1, "   ")
	require.ErrorIs(t, err, domain.ErrReasonRequired)
	_, err = f.approvalSvc.RequestChanges(ctx, 1, 1, "")
	require.ErrorIs(t, err, domain.ErrReasonRequired)
}

func TestReject_PersistsReason(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)

	detail, err := f.approvalSvc.Reject(ctx, submitted.Approval.ID, manager.ID, "coverage exceeds underwriting limit")
	require.NoError(t, err)

	require.Equal(t, models.ApprovalStatusRejected, detail.Approval.Status)
	require.Equal(t, "coverage exceeds underwriting limit", detail.Approval.RejectionReason)
	require.Equal(t, manager.ID, *detail.Approval.RejectedBy)
	require.Equal(t, models.PolicyStatusRejected, detail.Policy.Status)

	history, err := f.approvalSvc.GetHistory(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActionRejected, history[0].Action)
	require.Equal(t, "coverage exceeds underwriting limit", history[0].Notes)
}

func TestRequestChanges_ThenResubmit(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	firstApprovalID := submitted.Approval.ID

	returned, err := f.approvalSvc.RequestChanges(ctx, firstApprovalID, manager.ID, "premium does not match coverage")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusRequiresChanges, returned.Approval.Status)
	require.Equal(t, models.PolicyStatusChangesRequired, returned.Policy.Status)
	require.Equal(t, "premium does not match coverage", returned.Approval.ChangesRequired)

	// Resubmission reuses the approval row and clears the previous decision
	resubmitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "premium adjusted")
	require.NoError(t, err)
	require.Equal(t, firstApprovalID, resubmitted.Approval.ID)
	require.Equal(t, models.ApprovalStatusUnderReview, resubmitted.Approval.Status)
	require.Nil(t, resubmitted.Approval.ChangesRequestedBy)
	require.Empty(t, resubmitted.Approval.ChangesRequired)

	// Both cycles stay in the audit trail
	history, err := f.approvalSvc.GetHistory(ctx, policy.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
}

func TestSubmitForApproval_OpenReviewCannotBeResubmitted(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)

	// The policy has left the submittable family, so the guard fires before
	// the approval row is even touched
	_, err = f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestAssignManager_Reassigns(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	// No managers yet, so the submission waits unassigned
	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	require.Nil(t, submitted.Approval.AssignedManagerID)

	manager := f.createManager(t, "manager1", true)
	detail, err := f.approvalSvc.AssignManager(ctx, submitted.Approval.ID, manager.ID, 42, "picked up from queue")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusUnderReview, detail.Approval.Status)
	require.Equal(t, manager.ID, *detail.Approval.AssignedManagerID)
	require.Equal(t, models.PolicyStatusUnderReview, detail.Policy.Status)
}

func TestAssignManager_IneligibleTarget(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	viewer := f.createManager(t, "viewer", false)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	submitted, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)

	_, err = f.approvalSvc.AssignManager(ctx, submitted.Approval.ID, viewer.ID, 42, "")
	require.ErrorIs(t, err, domain.ErrInvalidManager)

	_, err = f.approvalSvc.AssignManager(ctx, submitted.Approval.ID, 9999, 42, "")
	require.ErrorIs(t, err, domain.ErrManagerNotFound)
}

func TestGetPendingApprovals_ScopedToManager(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	m1 := f.createManager(t, "manager1", true)
	m2 := f.createManager(t, "manager2", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)

	// Least-load assignment spreads the two submissions across both desks
	p1 := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)
	p2 := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)
	_, err := f.approvalSvc.SubmitForApproval(ctx, p1.ID, broker.ID, "")
	require.NoError(t, err)
	_, err = f.approvalSvc.SubmitForApproval(ctx, p2.ID, broker.ID, "")
	require.NoError(t, err)

	all, err := f.approvalSvc.GetPendingApprovals(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := f.approvalSvc.GetPendingApprovals(ctx, &m1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := f.approvalSvc.GetPendingApprovals(ctx, &m2.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}

func TestGetPendingApprovals_CarriesDocumentChecklist(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	_, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)

	pending, err := f.approvalSvc.GetPendingApprovals(ctx, nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Documents)
	require.True(t, pending[0].Documents.Complete())
	require.Len(t, pending[0].Documents.Required, 2)
}

func TestSubmitForApproval_MarksDocumentsVerified(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.verifiedMotorDocuments(t, holder.ID)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	detail, err := f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "")
	require.NoError(t, err)
	require.True(t, detail.Approval.DocumentsVerified)

	// The flag survives the round trip through request-changes and resubmission
	_, err = f.approvalSvc.RequestChanges(ctx, detail.Approval.ID, manager.ID, "fix the sum insured")
	require.NoError(t, err)

	detail, err = f.approvalSvc.SubmitForApproval(ctx, policy.ID, broker.ID, "resubmitted")
	require.NoError(t, err)
	require.True(t, detail.Approval.DocumentsVerified)

	stored, err := f.approvalRepo.GetByID(ctx, detail.Approval.ID)
	require.NoError(t, err)
	require.True(t, stored.DocumentsVerified)
}

func TestGetHistory_PolicyNotFound(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.approvalSvc.GetHistory(context.Background(), 9999)
	require.ErrorIs(t, err, domain.ErrPolicyNotFound)
}

func TestGetByPolicyID_NotFound(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.approvalSvc.GetByPolicyID(context.Background(), 9999)
	require.ErrorIs(t, err, domain.ErrApprovalNotFound)
}

func TestGetStatistics(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	manager := f.createManager(t, "manager1", true)
	now := time.Now().UTC()

	mkApproval := func(policyID uint, status string, reviewHours float64) *models.PolicyApproval {
		a := &models.PolicyApproval{
			PolicyID:          policyID,
			Status:            status,
			SubmittedBy:       broker.ID,
			SubmittedAt:       now.Add(-time.Duration(reviewHours * float64(time.Hour))),
			AssignedManagerID: &manager.ID,
		}
		switch status {
		case models.ApprovalStatusApproved:
			a.ApprovedBy = &manager.ID
			a.ApprovedAt = &now
		case models.ApprovalStatusRejected:
			a.RejectedBy = &manager.ID
			a.RejectedAt = &now
		}
		require.NoError(t, f.db.Create(a).Error)
		return a
	}

	mkApproval(1, models.ApprovalStatusApproved, 4)
	mkApproval(2, models.ApprovalStatusApproved, 2)
	mkApproval(3, models.ApprovalStatusRejected, 1)
	mkApproval(4, models.ApprovalStatusPending, 0)
	mkApproval(5, models.ApprovalStatusUnderReview, 0)

	stats, err := f.approvalSvc.GetStatistics(ctx, nil)
	require.NoError(t, err)

	require.Equal(t, int64(1), stats.PendingCount)
	require.Equal(t, int64(1), stats.UnderReviewCount)
	require.Equal(t, int64(2), stats.ApprovedTodayCount)
	require.Equal(t, int64(1), stats.RejectedTodayCount)
	require.InDelta(t, 3.0, stats.AverageReviewTimeHours, 0.01)
	require.InDelta(t, 66.67, stats.ApprovalRate, 0.1)
	require.GreaterOrEqual(t, stats.ApprovalRate, 0.0)
	require.LessOrEqual(t, stats.ApprovalRate, 100.0)
}

func TestGetStatistics_NoDecisions(t *testing.T) {
	f := newWorkflowFixture(t)

	stats, err := f.approvalSvc.GetStatistics(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.Zero(t, stats.ApprovalRate)
	require.Zero(t, stats.AverageReviewTimeHours)
}
