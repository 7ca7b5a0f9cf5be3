package services

import (
	"context"
	"regexp"
	"testing"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

var policyNumberPattern = regexp.MustCompile(`^POL-\d{4}-[0-9A-F]{12}$`)

func listFilterForBroker(brokerID uint) repositories.ListFilter {
	return repositories.ListFilter{BrokerID: &brokerID}
}

func TestCreatePolicy_WithBroker(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	f.createMotorServiceType(t)

	policy, err := f.policySvc.Create(ctx, &CreatePolicyInput{
		PolicyHolderID:  holder.ID,
		ServiceTypeCode: "MOTOR",
		CoverageAmount:  1000000,
		PremiumAmount:   15000,
	}, &broker.ID)
	require.NoError(t, err)

	require.Equal(t, models.PolicyStatusDraft, policy.Status)
	require.Equal(t, broker.ID, policy.BrokerID)
	require.Regexp(t, policyNumberPattern, policy.PolicyNumber)
}

func TestCreatePolicy_RoutesThroughRoundRobin(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	b1 := f.createBroker(t, "rr1")
	b2 := f.createBroker(t, "rr2")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	f.createMotorServiceType(t)

	input := &CreatePolicyInput{
		PolicyHolderID:  holder.ID,
		ServiceTypeCode: "MOTOR",
		CoverageAmount:  1000000,
		PremiumAmount:   15000,
	}

	first, err := f.policySvc.Create(ctx, input, nil)
	require.NoError(t, err)
	second, err := f.policySvc.Create(ctx, input, nil)
	require.NoError(t, err)

	require.Equal(t, b1.ID, first.BrokerID)
	require.Equal(t, b2.ID, second.BrokerID)
	require.NotEqual(t, first.PolicyNumber, second.PolicyNumber)
}

func TestCreatePolicy_InvalidServiceType(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")

	_, err := f.policySvc.Create(ctx, &CreatePolicyInput{
		PolicyHolderID:  holder.ID,
		ServiceTypeCode: "NOPE",
		CoverageAmount:  1000000,
		PremiumAmount:   15000,
	}, &broker.ID)
	require.ErrorIs(t, err, domain.ErrInvalidServiceType)
}

func TestCreatePolicy_UnknownHolder(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	f.createMotorServiceType(t)

	_, err := f.policySvc.Create(ctx, &CreatePolicyInput{
		PolicyHolderID:  9999,
		ServiceTypeCode: "MOTOR",
		CoverageAmount:  1000000,
		PremiumAmount:   15000,
	}, &broker.ID)
	require.ErrorIs(t, err, ErrHolderNotFound)
}

func TestUpdateDraft(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	other := f.createBroker(t, "other")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	coverage := 2000000.0
	updated, err := f.policySvc.UpdateDraft(ctx, policy.ID, broker.ID, &UpdateDraftInput{
		CoverageAmount: &coverage,
	})
	require.NoError(t, err)
	require.Equal(t, coverage, updated.CoverageAmount)
	require.Equal(t, policy.PremiumAmount, updated.PremiumAmount)

	_, err = f.policySvc.UpdateDraft(ctx, policy.ID, other.ID, &UpdateDraftInput{CoverageAmount: &coverage})
	require.ErrorIs(t, err, domain.ErrNotPolicyOwner)
}

func TestUpdateDraft_LockedOnceSubmitted(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusUnderReview)

	coverage := 2000000.0
	_, err := f.policySvc.UpdateDraft(ctx, policy.ID, broker.ID, &UpdateDraftInput{CoverageAmount: &coverage})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelPolicy(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusDraft)

	cancelled, err := f.policySvc.Cancel(ctx, policy.ID, broker.ID)
	require.NoError(t, err)
	require.Equal(t, models.PolicyStatusCancelled, cancelled.Status)

	stored, err := f.policySvc.GetByID(ctx, policy.ID)
	require.NoError(t, err)
	require.Equal(t, models.PolicyStatusCancelled, stored.Status)
}

func TestCancelPolicy_UnderReview(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	broker := f.createBroker(t, "broker1")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	policy := f.createPolicy(t, holder, broker, st, models.PolicyStatusUnderReview)

	_, err := f.policySvc.Cancel(ctx, policy.ID, broker.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestListPolicies_Filtered(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	b1 := f.createBroker(t, "broker1")
	b2 := f.createBroker(t, "broker2")
	holder := f.createHolder(t, "Somchai", "Jaidee", "1103700000001")
	st := f.createMotorServiceType(t)
	f.createPolicy(t, holder, b1, st, models.PolicyStatusDraft)
	f.createPolicy(t, holder, b1, st, models.PolicyStatusActive)
	f.createPolicy(t, holder, b2, st, models.PolicyStatusDraft)

	policies, total, err := f.policySvc.List(ctx, listFilterForBroker(b1.ID), 0, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, policies, 2)

	filter := listFilterForBroker(b1.ID)
	filter.Status = models.PolicyStatusActive
	policies, total, err = f.policySvc.List(ctx, filter, 0, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, policies, 1)
}

func TestGetPolicyByID_NotFound(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.policySvc.GetByID(context.Background(), 9999)
	require.ErrorIs(t, err, domain.ErrPolicyNotFound)
}
