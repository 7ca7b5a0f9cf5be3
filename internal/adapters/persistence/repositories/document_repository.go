package repositories

import (
	"context"
	"time"

	"coverhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ServiceTypeRepository handles service type reference data
type ServiceTypeRepository struct {
	db *gorm.DB
}

// NewServiceTypeRepository creates a new service type repository
func NewServiceTypeRepository(db *gorm.DB) *ServiceTypeRepository {
	return &ServiceTypeRepository{db: db}
}

// GetByCode gets an active service type by code
func (r *ServiceTypeRepository) GetByCode(ctx context.Context, code string) (*models.ServiceType, error) {
	var st models.ServiceType
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Where("is_active = ?", true).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// List lists all service types
func (r *ServiceTypeRepository) List(ctx context.Context) ([]*models.ServiceType, error) {
	var types []*models.ServiceType
	err := r.db.WithContext(ctx).Order("code ASC").Find(&types).Error
	return types, err
}

// Create creates a service type
func (r *ServiceTypeRepository) Create(ctx context.Context, st *models.ServiceType) error {
	return r.db.WithContext(ctx).Create(st).Error
}

// RequirementRepository handles document requirement reference data
type RequirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository creates a new requirement repository
func NewRequirementRepository(db *gorm.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// ListByServiceTypeID lists requirements for a service type in display order
func (r *RequirementRepository) ListByServiceTypeID(ctx context.Context, serviceTypeID uint) ([]*models.DocumentRequirement, error) {
	var reqs []*models.DocumentRequirement
	err := r.db.WithContext(ctx).
		Where("service_type_id = ?", serviceTypeID).
		Order("display_order ASC").
		Find(&reqs).Error
	return reqs, err
}

// Create creates a document requirement
func (r *RequirementRepository) Create(ctx context.Context, req *models.DocumentRequirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// ShortestValidityDays returns the strictest positive validity period
// configured for a document type across service types, 0 when none is set
func (r *RequirementRepository) ShortestValidityDays(ctx context.Context, docType string) (int, error) {
	var days int
	err := r.db.WithContext(ctx).
		Model(&models.DocumentRequirement{}).
		Where("document_type = ?", docType).
		Where("validity_days > 0").
		Select("COALESCE(MIN(validity_days), 0)").
		Scan(&days).Error
	return days, err
}

// DocumentRepository handles document data access
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID gets a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Preload("PolicyHolder").First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// LatestUsableByType gets the newest non-rejected, non-expired document of a
// type for a policyholder. Returns gorm.ErrRecordNotFound when none exists.
func (r *DocumentRepository) LatestUsableByType(ctx context.Context, holderID uint, docType string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("policy_holder_id = ?", holderID).
		Where("document_type = ?", docType).
		Where("status NOT IN ?", []string{models.DocumentStatusRejected, models.DocumentStatusExpired}).
		Order("created_at DESC, id DESC").
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByHolder lists documents for a policyholder, newest first
func (r *DocumentRepository) ListByHolder(ctx context.Context, holderID uint) ([]*models.Document, error) {
	var docs []*models.Document
	err := r.db.WithContext(ctx).
		Where("policy_holder_id = ?", holderID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// Update updates a document
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// ExpireOverdue marks documents past their expiry date as EXPIRED and
// returns the number affected.
func (r *DocumentRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Where("status IN ?", []string{models.DocumentStatusPending, models.DocumentStatusVerified}).
		Update("status", models.DocumentStatusExpired)
	return res.RowsAffected, res.Error
}
