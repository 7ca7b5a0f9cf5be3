package repositories

import (
	"context"
	"time"

	"coverhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ApprovalRepository handles policy approval data access
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ApprovalRepository) WithTx(tx *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: tx}
}

// Create creates a new approval record
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.PolicyApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

// GetByID gets an approval by ID with relations
func (r *ApprovalRepository) GetByID(ctx context.Context, id uint) (*models.PolicyApproval, error) {
	var approval models.PolicyApproval
	err := r.db.WithContext(ctx).
		Preload("Policy").
		Preload("Policy.PolicyHolder").
		Preload("Policy.Broker").
		Preload("Policy.Broker.User").
		Preload("Policy.ServiceType").
		Preload("AssignedManager").
		Preload("AssignedManager.User").
		First(&approval, id).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// GetByPolicyID gets the approval record for a policy
func (r *ApprovalRepository) GetByPolicyID(ctx context.Context, policyID uint) (*models.PolicyApproval, error) {
	var approval models.PolicyApproval
	err := r.db.WithContext(ctx).Where("policy_id = ?", policyID).First(&approval).Error
	if err != nil {
		return nil, err
	}
	return &approval, nil
}

// Save persists the full approval record, incrementing its version. The
// update is guarded by the version the record was read at; zero rows
// affected means a concurrent writer got there first.
func (r *ApprovalRepository) Save(ctx context.Context, approval *models.PolicyApproval) (bool, error) {
	readVersion := approval.Version
	approval.Version = readVersion + 1

	res := r.db.WithContext(ctx).
		Model(&models.PolicyApproval{}).
		Where("id = ? AND version = ?", approval.ID, readVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(approval)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		approval.Version = readVersion
		return false, nil
	}
	return true, nil
}

// ListOpen lists PENDING and UNDER_REVIEW approvals, optionally filtered by
// assigned manager, oldest submission first.
func (r *ApprovalRepository) ListOpen(ctx context.Context, managerID *uint) ([]*models.PolicyApproval, error) {
	q := r.db.WithContext(ctx).
		Preload("Policy").
		Preload("Policy.PolicyHolder").
		Preload("Policy.Broker").
		Preload("Policy.Broker.User").
		Preload("Policy.ServiceType").
		Preload("AssignedManager").
		Preload("AssignedManager.User").
		Where("status IN ?", []string{models.ApprovalStatusPending, models.ApprovalStatusUnderReview})

	if managerID != nil {
		q = q.Where("assigned_manager_id = ?", *managerID)
	}

	var approvals []*models.PolicyApproval
	err := q.Order("submitted_at ASC").Find(&approvals).Error
	return approvals, err
}

// CountByStatus counts approvals in a status, optionally per manager
func (r *ApprovalRepository) CountByStatus(ctx context.Context, status string, managerID *uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PolicyApproval{}).Where("status = ?", status)
	if managerID != nil {
		q = q.Where("assigned_manager_id = ?", *managerID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// CountApprovedSince counts approvals decided APPROVED at or after t
func (r *ApprovalRepository) CountApprovedSince(ctx context.Context, t time.Time, managerID *uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PolicyApproval{}).
		Where("status = ?", models.ApprovalStatusApproved).
		Where("approved_at >= ?", t)
	if managerID != nil {
		q = q.Where("assigned_manager_id = ?", *managerID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// CountRejectedSince counts approvals decided REJECTED at or after t
func (r *ApprovalRepository) CountRejectedSince(ctx context.Context, t time.Time, managerID *uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.PolicyApproval{}).
		Where("status = ?", models.ApprovalStatusRejected).
		Where("rejected_at >= ?", t)
	if managerID != nil {
		q = q.Where("assigned_manager_id = ?", *managerID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// ListApproved returns approved records (submitted/approved timestamps only
// matter to the caller), optionally per manager
func (r *ApprovalRepository) ListApproved(ctx context.Context, managerID *uint) ([]*models.PolicyApproval, error) {
	q := r.db.WithContext(ctx).Where("status = ?", models.ApprovalStatusApproved)
	if managerID != nil {
		q = q.Where("assigned_manager_id = ?", *managerID)
	}
	var approvals []*models.PolicyApproval
	err := q.Find(&approvals).Error
	return approvals, err
}

// HistoryRepository handles audit history data access. Append-only: there is
// deliberately no update or delete.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, entry *models.PolicyApprovalHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByApprovalID lists history entries for an approval, newest first
func (r *HistoryRepository) ListByApprovalID(ctx context.Context, approvalID uint) ([]*models.PolicyApprovalHistory, error) {
	var entries []*models.PolicyApprovalHistory
	err := r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// ListByPolicyID lists history entries for a policy, newest first
func (r *HistoryRepository) ListByPolicyID(ctx context.Context, policyID uint) ([]*models.PolicyApprovalHistory, error) {
	var entries []*models.PolicyApprovalHistory
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}
