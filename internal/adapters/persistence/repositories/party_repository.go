package repositories

import (
	"context"

	"coverhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BrokerRepository handles broker data access
type BrokerRepository struct {
	db *gorm.DB
}

// NewBrokerRepository creates a new broker repository
func NewBrokerRepository(db *gorm.DB) *BrokerRepository {
	return &BrokerRepository{db: db}
}

// Create creates a new broker
func (r *BrokerRepository) Create(ctx context.Context, broker *models.Broker) error {
	return r.db.WithContext(ctx).Create(broker).Error
}

// GetByID gets a broker by ID
func (r *BrokerRepository) GetByID(ctx context.Context, id uint) (*models.Broker, error) {
	var broker models.Broker
	err := r.db.WithContext(ctx).Preload("User").First(&broker, id).Error
	if err != nil {
		return nil, err
	}
	return &broker, nil
}

// GetByUserID gets a broker by user ID
func (r *BrokerRepository) GetByUserID(ctx context.Context, userID uint) (*models.Broker, error) {
	var broker models.Broker
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&broker).Error
	if err != nil {
		return nil, err
	}
	return &broker, nil
}

// ListActive lists active brokers whose user account is active, ordered by
// creation date. This ordering defines the round-robin ring.
func (r *BrokerRepository) ListActive(ctx context.Context) ([]*models.Broker, error) {
	var brokers []*models.Broker
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = brokers.user_id").
		Where("brokers.is_active = ?", true).
		Where("users.is_active = ?", true).
		Where("users.deleted_at IS NULL").
		Order("brokers.created_at ASC").
		Find(&brokers).Error
	return brokers, err
}

// Update updates a broker
func (r *BrokerRepository) Update(ctx context.Context, broker *models.Broker) error {
	return r.db.WithContext(ctx).Save(broker).Error
}

// ManagerRepository handles manager data access
type ManagerRepository struct {
	db *gorm.DB
}

// NewManagerRepository creates a new manager repository
func NewManagerRepository(db *gorm.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

// Create creates a new manager
func (r *ManagerRepository) Create(ctx context.Context, manager *models.Manager) error {
	return r.db.WithContext(ctx).Create(manager).Error
}

// GetByID gets a manager by ID
func (r *ManagerRepository) GetByID(ctx context.Context, id uint) (*models.Manager, error) {
	var manager models.Manager
	err := r.db.WithContext(ctx).Preload("User").First(&manager, id).Error
	if err != nil {
		return nil, err
	}
	return &manager, nil
}

// GetByUserID gets a manager by user ID
func (r *ManagerRepository) GetByUserID(ctx context.Context, userID uint) (*models.Manager, error) {
	var manager models.Manager
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&manager).Error
	if err != nil {
		return nil, err
	}
	return &manager, nil
}

// ListApprovers lists active managers with approval permission
func (r *ManagerRepository) ListApprovers(ctx context.Context) ([]*models.Manager, error) {
	var managers []*models.Manager
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_active = ?", true).
		Where("can_approve = ?", true).
		Find(&managers).Error
	return managers, err
}

// CountOpenAssignments counts pending + under-review approvals assigned to a manager
func (r *ManagerRepository) CountOpenAssignments(ctx context.Context, managerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PolicyApproval{}).
		Where("assigned_manager_id = ?", managerID).
		Where("status IN ?", []string{models.ApprovalStatusPending, models.ApprovalStatusUnderReview}).
		Count(&count).Error
	return count, err
}

// Update updates a manager
func (r *ManagerRepository) Update(ctx context.Context, manager *models.Manager) error {
	return r.db.WithContext(ctx).Save(manager).Error
}

// PolicyHolderRepository handles policyholder data access
type PolicyHolderRepository struct {
	db *gorm.DB
}

// NewPolicyHolderRepository creates a new policyholder repository
func NewPolicyHolderRepository(db *gorm.DB) *PolicyHolderRepository {
	return &PolicyHolderRepository{db: db}
}

// Create creates a new policyholder
func (r *PolicyHolderRepository) Create(ctx context.Context, holder *models.PolicyHolder) error {
	return r.db.WithContext(ctx).Create(holder).Error
}

// GetByID gets a policyholder by ID
func (r *PolicyHolderRepository) GetByID(ctx context.Context, id uint) (*models.PolicyHolder, error) {
	var holder models.PolicyHolder
	err := r.db.WithContext(ctx).Preload("User").First(&holder, id).Error
	if err != nil {
		return nil, err
	}
	return &holder, nil
}

// GetByUserID gets a policyholder by user ID
func (r *PolicyHolderRepository) GetByUserID(ctx context.Context, userID uint) (*models.PolicyHolder, error) {
	var holder models.PolicyHolder
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&holder).Error
	if err != nil {
		return nil, err
	}
	return &holder, nil
}

// GetByIDNumber gets a policyholder by national ID number
func (r *PolicyHolderRepository) GetByIDNumber(ctx context.Context, idNumber string) (*models.PolicyHolder, error) {
	var holder models.PolicyHolder
	err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&holder).Error
	if err != nil {
		return nil, err
	}
	return &holder, nil
}

// Update updates a policyholder
func (r *PolicyHolderRepository) Update(ctx context.Context, holder *models.PolicyHolder) error {
	return r.db.WithContext(ctx).Save(holder).Error
}
