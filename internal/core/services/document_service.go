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

// Document errors
var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentNotPending = errors.New("document has already been reviewed")
	ErrHolderNotFound     = errors.New("policyholder not found")
)

// DocumentService manages uploaded document metadata. File contents live in
// external storage; only the record and its lifecycle are handled here.
type DocumentService struct {
	documentRepo    *repositories.DocumentRepository
	requirementRepo *repositories.RequirementRepository
	holderRepo      *repositories.PolicyHolderRepository
	managerRepo     *repositories.ManagerRepository
	requirementSvc  *RequirementService
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documentRepo *repositories.DocumentRepository,
	requirementRepo *repositories.RequirementRepository,
	holderRepo *repositories.PolicyHolderRepository,
	managerRepo *repositories.ManagerRepository,
	requirementSvc *RequirementService,
) *DocumentService {
	return &DocumentService{
		documentRepo:    documentRepo,
		requirementRepo: requirementRepo,
		holderRepo:      holderRepo,
		managerRepo:     managerRepo,
		requirementSvc:  requirementSvc,
	}
}

// UploadInput represents document upload input
type UploadInput struct {
	PolicyHolderID uint   `json:"policy_holder_id" validate:"required"`
	PolicyID       *uint  `json:"policy_id,omitempty"`
	DocumentType   string `json:"document_type" validate:"required"`
	FileName       string `json:"file_name" validate:"required"`
	Checksum       string `json:"checksum" validate:"required,len=64"`
}

// Upload records an uploaded document as PENDING. When the document type
// carries a validity period the expiry date is stamped at upload time.
func (s *DocumentService) Upload(ctx context.Context, input *UploadInput, uploaderID uint) (*models.Document, error) {
	if _, err := s.holderRepo.GetByID(ctx, input.PolicyHolderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHolderNotFound
		}
		return nil, err
	}

	doc := &models.Document{
		PolicyHolderID: input.PolicyHolderID,
		PolicyID:       input.PolicyID,
		DocumentType:   input.DocumentType,
		FileName:       input.FileName,
		Checksum:       strings.ToLower(input.Checksum),
		Status:         models.DocumentStatusPending,
		UploadedBy:     uploaderID,
	}

	if days, err := s.requirementRepo.ShortestValidityDays(ctx, input.DocumentType); err == nil && days > 0 {
		expires := time.Now().AddDate(0, 0, days)
		doc.ExpiresAt = &expires
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	logger.Infof("Document %s uploaded for holder %d", doc.DocumentType, doc.PolicyHolderID)
	return doc, nil
}

// Verify settles a pending document: VERIFIED, or REJECTED with a reason
func (s *DocumentService) Verify(ctx context.Context, documentID, verifierID uint, approve bool, rejectionReason string) (*models.Document, error) {
	manager, err := s.managerRepo.GetByUserID(ctx, verifierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !manager.IsActive {
		return nil, domain.ErrUnauthorized
	}

	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, ErrDocumentNotPending
	}

	now := time.Now()
	if approve {
		doc.Status = models.DocumentStatusVerified
		doc.VerifiedBy = &verifierID
		doc.VerifiedAt = &now
	} else {
		if strings.TrimSpace(rejectionReason) == "" {
			return nil, domain.ErrReasonRequired
		}
		doc.Status = models.DocumentStatusRejected
		doc.VerifiedBy = &verifierID
		doc.VerifiedAt = &now
		doc.RejectionReason = rejectionReason
	}

	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	logger.Infof("Document %d set to %s by user %d", doc.ID, doc.Status, verifierID)
	return doc, nil
}

// IsComplete reports whether the holder satisfies every required document
// for a service type, with the names still missing
func (s *DocumentService) IsComplete(ctx context.Context, holderID uint, serviceCode string) (bool, []string, error) {
	result, err := s.requirementSvc.Resolve(ctx, serviceCode, holderID)
	if err != nil {
		return false, nil, err
	}
	missing := result.MissingRequired()
	return len(missing) == 0, missing, nil
}

// GetByID gets a document by ID
func (s *DocumentService) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// ListByHolder lists a policyholder's documents, newest first
func (s *DocumentService) ListByHolder(ctx context.Context, holderID uint) ([]*models.Document, error) {
	return s.documentRepo.ListByHolder(ctx, holderID)
}

// ExpireOverdue marks documents past their expiry date as EXPIRED. Run by
// the scheduler; safe to call repeatedly.
func (s *DocumentService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.documentRepo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Infof("Expired %d overdue documents", n)
	}
	return n, nil
}
