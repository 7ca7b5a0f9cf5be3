package repositories

import (
	"context"

	"coverhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PolicyRepository handles policy data access
type PolicyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Create creates a new policy
func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

// GetByID gets a policy by ID with relations
func (r *PolicyRepository) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	var policy models.Policy
	err := r.db.WithContext(ctx).
		Preload("PolicyHolder").
		Preload("Broker").
		Preload("Broker.User").
		Preload("ServiceType").
		First(&policy, id).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// GetByPolicyNumber gets a policy by its policy number
func (r *PolicyRepository) GetByPolicyNumber(ctx context.Context, number string) (*models.Policy, error) {
	var policy models.Policy
	err := r.db.WithContext(ctx).
		Preload("PolicyHolder").
		Preload("ServiceType").
		Where("policy_number = ?", number).
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListFilter filters for List
type ListFilter struct {
	BrokerID       *uint
	PolicyHolderID *uint
	Status         string
}

// List lists policies with pagination and optional filters
func (r *PolicyRepository) List(ctx context.Context, filter ListFilter, offset, limit int) ([]*models.Policy, int64, error) {
	var policies []*models.Policy
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Policy{})
	if filter.BrokerID != nil {
		q = q.Where("broker_id = ?", *filter.BrokerID)
	}
	if filter.PolicyHolderID != nil {
		q = q.Where("policy_holder_id = ?", *filter.PolicyHolderID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.
		Preload("PolicyHolder").
		Preload("ServiceType").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&policies).Error

	return policies, total, err
}

// Update updates a policy
func (r *PolicyRepository) Update(ctx context.Context, policy *models.Policy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}

// UpdateStatus updates only the policy status
func (r *PolicyRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Policy{}).
		Where("id = ?", id).
		Update("status", status).Error
}
