package services

import (
	"context"
	"errors"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"
	"coverhub/internal/core/domain"

	"gorm.io/gorm"
)

// RequirementService resolves which documents a policyholder still needs
// for a given service type. Read-only.
type RequirementService struct {
	serviceTypeRepo *repositories.ServiceTypeRepository
	requirementRepo *repositories.RequirementRepository
	documentRepo    *repositories.DocumentRepository
}

// NewRequirementService creates a new requirement service
func NewRequirementService(
	serviceTypeRepo *repositories.ServiceTypeRepository,
	requirementRepo *repositories.RequirementRepository,
	documentRepo *repositories.DocumentRepository,
) *RequirementService {
	return &RequirementService{
		serviceTypeRepo: serviceTypeRepo,
		requirementRepo: requirementRepo,
		documentRepo:    documentRepo,
	}
}

// Resolve returns the requirement checklist for a service type code,
// annotated with the holder's uploaded/verified status per document type.
func (s *RequirementService) Resolve(ctx context.Context, serviceCode string, holderID uint) (*domain.RequirementResult, error) {
	serviceType, err := s.serviceTypeRepo.GetByCode(ctx, serviceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidServiceType
		}
		return nil, err
	}

	return s.ResolveByServiceTypeID(ctx, serviceType.ID, serviceType.Code, holderID)
}

// ResolveByServiceTypeID is Resolve for callers that already hold the
// service type row (submission path, avoids the code lookup).
func (s *RequirementService) ResolveByServiceTypeID(ctx context.Context, serviceTypeID uint, serviceCode string, holderID uint) (*domain.RequirementResult, error) {
	requirements, err := s.requirementRepo.ListByServiceTypeID(ctx, serviceTypeID)
	if err != nil {
		return nil, err
	}

	result := &domain.RequirementResult{ServiceCode: serviceCode}

	for _, req := range requirements {
		status := domain.DocumentStatus{
			DocumentType: req.DocumentType,
			Name:         req.Name,
			IsRequired:   req.IsRequired,
		}

		doc, err := s.documentRepo.LatestUsableByType(ctx, holderID, req.DocumentType)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if doc != nil {
			status.Uploaded = true
			status.Verified = doc.Status == models.DocumentStatusVerified
			status.DocumentID = &doc.ID
		}

		if req.IsRequired {
			result.Required = append(result.Required, status)
		} else {
			result.Optional = append(result.Optional, status)
		}
	}

	return result, nil
}
