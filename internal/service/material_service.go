package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

type MaterialService struct {
	materialRepo *repository.MaterialRepository
	logger       *zap.Logger
}

func NewMaterialService(materialRepo *repository.MaterialRepository, logger *zap.Logger) *MaterialService {
	return &MaterialService{
		materialRepo: materialRepo,
		logger:       logger,
	}
}

func (s *MaterialService) Create(ctx context.Context, req *domain.CreateMaterialRequest) (*domain.MaterialDTO, error) {
	material := &domain.Material{}
	if err := applyMaterialRequest(material, req); err != nil {
		return nil, err
	}

	if err := s.materialRepo.Create(ctx, material); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateMaterialName
		}
		return nil, fmt.Errorf("failed to create material: %w", err)
	}

	s.logger.Info("material created",
		zap.String("material_id", material.ID.String()),
		zap.String("name", material.Name))

	dto := mapper.ToMaterialDTO(material)
	return &dto, nil
}

func (s *MaterialService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialDTO, error) {
	material, err := s.materialRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	dto := mapper.ToMaterialDTO(material)
	return &dto, nil
}

func (s *MaterialService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateMaterialRequest) (*domain.MaterialDTO, error) {
	material, err := s.materialRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}

	if err := applyMaterialRequest(material, req); err != nil {
		return nil, err
	}

	if err := s.materialRepo.Update(ctx, material); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateMaterialName
		}
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	dto := mapper.ToMaterialDTO(material)
	return &dto, nil
}

func (s *MaterialService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.materialRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrMaterialNotFound
		}
		return fmt.Errorf("failed to delete material: %w", err)
	}
	return nil
}

func (s *MaterialService) List(ctx context.Context, page, pageSize int, search string, materialType *domain.MaterialType) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)
	if materialType != nil && !materialType.IsValid() {
		return nil, ErrInvalidServiceType
	}

	materials, total, err := s.materialRepo.List(ctx, page, pageSize, search, materialType)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	dtos := make([]domain.MaterialDTO, len(materials))
	for i := range materials {
		dtos[i] = mapper.ToMaterialDTO(&materials[i])
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}

func applyMaterialRequest(material *domain.Material, req *domain.CreateMaterialRequest) error {
	if req.UnitPrice.IsNegative() {
		return InvalidInput("Unit price must not be negative")
	}
	material.Name = strings.TrimSpace(req.Name)
	material.Description = req.Description
	material.Unit = req.Unit
	material.UnitPrice = req.UnitPrice
	material.MaterialType = domain.MaterialTypeMaterial
	if req.MaterialType != "" {
		material.MaterialType = req.MaterialType
	}
	return nil
}
