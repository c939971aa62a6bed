package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	minTaxPercent = decimal.NewFromInt(1)
	maxTaxPercent = decimal.NewFromInt(98)
)

// TaxService maintains the per service type tax history and resolves the
// rate that applied at a given instant.
//
// Each service type has at most one open row (effective_to IS NULL). A rate
// change closes the open row and appends a new one; closed rows are never
// written again.
type TaxService struct {
	taxRepo        *repository.TaxRepository
	tx             *repository.Transactor
	clock          clock.Clock
	defaultPercent decimal.Decimal
	logger         *zap.Logger
}

// NewTaxService creates a new TaxService. defaultPercent is used by
// ResolveOrDefault when no window covers the requested instant.
func NewTaxService(
	taxRepo *repository.TaxRepository,
	tx *repository.Transactor,
	clk clock.Clock,
	defaultPercent decimal.Decimal,
	logger *zap.Logger,
) *TaxService {
	return &TaxService{
		taxRepo:        taxRepo,
		tx:             tx,
		clock:          clk,
		defaultPercent: defaultPercent,
		logger:         logger,
	}
}

func (s *TaxService) List(ctx context.Context) ([]domain.TaxDTO, error) {
	taxes, err := s.taxRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list taxes: %w", err)
	}
	return toTaxDTOs(taxes), nil
}

func (s *TaxService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxDTO, error) {
	tax, err := s.taxRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTaxNotFound
		}
		return nil, fmt.Errorf("failed to get tax: %w", err)
	}
	dto := mapper.ToTaxDTO(tax)
	return &dto, nil
}

// Current returns the open row of serviceType
func (s *TaxService) Current(ctx context.Context, serviceType domain.MaterialType) (*domain.TaxDTO, error) {
	if !serviceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	tax, err := s.taxRepo.GetOpen(ctx, serviceType)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTaxNotFound
		}
		return nil, fmt.Errorf("failed to get current tax: %w", err)
	}
	dto := mapper.ToTaxDTO(tax)
	return &dto, nil
}

// History returns every window of serviceType, newest first
func (s *TaxService) History(ctx context.Context, serviceType domain.MaterialType) ([]domain.TaxDTO, error) {
	if !serviceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	taxes, err := s.taxRepo.History(ctx, serviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax history: %w", err)
	}
	return toTaxDTOs(taxes), nil
}

// Resolve returns the window of serviceType that contains at
func (s *TaxService) Resolve(ctx context.Context, serviceType domain.MaterialType, at time.Time) (*domain.Tax, error) {
	if !serviceType.IsValid() {
		return nil, ErrInvalidServiceType
	}
	tax, err := s.taxRepo.FindEffective(ctx, serviceType, at.UTC())
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTaxNotFound
		}
		return nil, fmt.Errorf("failed to resolve tax: %w", err)
	}
	return tax, nil
}

// ResolvePercent returns the rate of serviceType at at, or false when no window covers it
func (s *TaxService) ResolvePercent(ctx context.Context, serviceType domain.MaterialType, at time.Time) (decimal.Decimal, bool, error) {
	tax, err := s.Resolve(ctx, serviceType, at)
	if err != nil {
		if isNotFound(err) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return tax.TaxPercent, true, nil
}

// ResolveOrDefault returns the rate of serviceType at at, falling back to the
// configured default when no window covers it. Used for document generation.
func (s *TaxService) ResolveOrDefault(ctx context.Context, serviceType domain.MaterialType, at time.Time) (decimal.Decimal, error) {
	percent, found, err := s.ResolvePercent(ctx, serviceType, at)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		s.logger.Debug("no tax window covers instant, using default",
			zap.String("service_type", string(serviceType)),
			zap.Time("at", at),
			zap.String("default_percent", s.defaultPercent.String()))
		return s.defaultPercent, nil
	}
	return percent, nil
}

// Update sets a new rate for the service type of the row identified by id.
// The open row of that type is closed at now and a new open row starting at
// now is inserted, in one transaction. The target row itself is only read, so
// updating through a historical id supersedes the current rate without
// touching history.
func (s *TaxService) Update(ctx context.Context, id uuid.UUID, percent decimal.Decimal) (*domain.TaxDTO, error) {
	if percent.LessThan(minTaxPercent) || percent.GreaterThan(maxTaxPercent) {
		return nil, ErrTaxPercentOutOfRange
	}

	var created *domain.Tax
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		target, err := s.taxRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrTaxNotFound
			}
			return fmt.Errorf("failed to get tax: %w", err)
		}

		now := s.clock.Now()
		current, err := s.taxRepo.GetOpenForUpdate(ctx, tx, target.ServiceType)
		switch {
		case repository.IsNotFound(err):
			current = nil
		case err != nil:
			return fmt.Errorf("failed to lock current tax: %w", err)
		}

		if current != nil {
			if current.TaxPercent.Equal(percent) {
				return ErrTaxPercentUnchanged
			}
			if err := s.taxRepo.Close(ctx, tx, current.ID, now); err != nil {
				return fmt.Errorf("failed to close current tax: %w", err)
			}
		}

		created = &domain.Tax{
			ServiceType:   target.ServiceType,
			TaxPercent:    percent,
			EffectiveFrom: now,
		}
		if err := s.taxRepo.Create(ctx, tx, created); err != nil {
			return fmt.Errorf("failed to create tax: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tax rate changed",
		zap.String("service_type", string(created.ServiceType)),
		zap.String("tax_percent", created.TaxPercent.String()),
		zap.String("tax_id", created.ID.String()),
		zap.Time("effective_from", created.EffectiveFrom))

	dto := mapper.ToTaxDTO(created)
	return &dto, nil
}

func toTaxDTOs(taxes []domain.Tax) []domain.TaxDTO {
	dtos := make([]domain.TaxDTO, len(taxes))
	for i := range taxes {
		dtos[i] = mapper.ToTaxDTO(&taxes[i])
	}
	return dtos
}
