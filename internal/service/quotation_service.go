package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SecondaryOutcome reports a post-commit step that may fail without undoing
// the primary write. Err is nil when the step succeeded.
type SecondaryOutcome struct {
	Step string
	Err  error
}

// Failed reports whether the step failed
func (o SecondaryOutcome) Failed() bool {
	return o.Err != nil
}

// QuotationResult is the saved quotation plus the outcome of recording the
// quoted prices against the customer.
type QuotationResult struct {
	Quotation    *domain.QuotationDTO
	PriceHistory SecondaryOutcome
}

// Warnings lists client-facing messages for failed secondary steps
func (r *QuotationResult) Warnings() []string {
	if !r.PriceHistory.Failed() {
		return nil
	}
	return []string{"quotation saved but " + r.PriceHistory.Step + " failed"}
}

type QuotationService struct {
	quotationRepo *repository.QuotationRepository
	customerRepo  *repository.CustomerRepository
	materialRepo  *repository.MaterialRepository
	poRepo        *repository.PurchaseOrderRepository
	tx            *repository.Transactor
	clock         clock.Clock
	logger        *zap.Logger
}

func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	customerRepo *repository.CustomerRepository,
	materialRepo *repository.MaterialRepository,
	poRepo *repository.PurchaseOrderRepository,
	tx *repository.Transactor,
	clk clock.Clock,
	logger *zap.Logger,
) *QuotationService {
	return &QuotationService{
		quotationRepo: quotationRepo,
		customerRepo:  customerRepo,
		materialRepo:  materialRepo,
		poRepo:        poRepo,
		tx:            tx,
		clock:         clk,
		logger:        logger,
	}
}

// buildLines validates the requested lines against the catalogue and fills
// missing names, units and types from it.
func (s *QuotationService) buildLines(ctx context.Context, req []domain.QuotationMaterialRequest) (domain.QuotationMaterials, error) {
	ids := make([]uuid.UUID, 0, len(req))
	for _, l := range req {
		ids = append(ids, l.MaterialID)
	}
	catalogue, err := s.materialRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}

	lines := make(domain.QuotationMaterials, len(req))
	for i, l := range req {
		material, ok := catalogue[l.MaterialID]
		if !ok {
			return nil, ErrMaterialsNotFound
		}
		if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
			return nil, InvalidInput("Quantity and unit price must not be negative")
		}

		line := domain.QuotationMaterial{
			MaterialID:   l.MaterialID,
			Name:         l.Name,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Unit:         l.Unit,
			MaterialType: l.MaterialType,
		}
		if line.Name == "" {
			line.Name = material.Name
		}
		if line.Unit == "" {
			line.Unit = material.Unit
		}
		if line.MaterialType == "" {
			line.MaterialType = material.MaterialType
		}
		lines[i] = line
	}
	return lines, nil
}

func (s *QuotationService) resolveCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReferencedCustomer
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func validateQuotationRequest(req *domain.CreateQuotationRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return InvalidInput("Title is required")
	}
	if req.TotalPrice.IsNegative() {
		return InvalidInput("Total price must not be negative")
	}
	return nil
}

func (s *QuotationService) Create(ctx context.Context, req *domain.CreateQuotationRequest) (*QuotationResult, error) {
	if err := validateQuotationRequest(req); err != nil {
		return nil, err
	}
	customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, req.Materials)
	if err != nil {
		return nil, err
	}

	quotation := &domain.Quotation{
		Title:        strings.TrimSpace(req.Title),
		CustomerID:   customer.ID,
		CustomerName: customerName(req.CustomerName, customer),
		Materials:    lines,
		TotalPrice:   req.TotalPrice,
		Status:       domain.QuotationStatusPending,
		CreatedBy:    auth.ActorID(ctx),
	}

	if err := s.quotationRepo.Create(ctx, quotation); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.logger.Info("quotation created",
		zap.String("quotation_id", quotation.ID.String()),
		zap.String("customer_id", quotation.CustomerID.String()))

	return s.withPriceHistory(ctx, quotation), nil
}

// Update rewrites the quotation content. The row is locked so a purchase
// order created concurrently cannot have its status change overwritten.
func (s *QuotationService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuotationRequest) (*QuotationResult, error) {
	if err := validateQuotationRequest(req); err != nil {
		return nil, err
	}
	customer, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, req.Materials)
	if err != nil {
		return nil, err
	}

	actorID := auth.ActorID(ctx)
	var quotation *domain.Quotation
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		quotation, err = s.quotationRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrQuotationNotFound
			}
			return fmt.Errorf("failed to get quotation: %w", err)
		}

		quotation.Title = strings.TrimSpace(req.Title)
		quotation.CustomerID = customer.ID
		quotation.CustomerName = customerName(req.CustomerName, customer)
		quotation.Materials = lines
		quotation.TotalPrice = req.TotalPrice
		quotation.UpdatedBy = &actorID

		if err := s.quotationRepo.Update(ctx, tx, quotation); err != nil {
			return fmt.Errorf("failed to update quotation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation updated", zap.String("quotation_id", quotation.ID.String()))

	return s.withPriceHistory(ctx, quotation), nil
}

// withPriceHistory records the quoted prices against the customer after the
// quotation is committed. A failure is logged and reported in the result.
func (s *QuotationService) withPriceHistory(ctx context.Context, quotation *domain.Quotation) *QuotationResult {
	dto := mapper.ToQuotationDTO(quotation)
	result := &QuotationResult{
		Quotation:    &dto,
		PriceHistory: SecondaryOutcome{Step: "saving customer material prices"},
	}

	now := s.clock.Now()
	for _, line := range quotation.Materials {
		if err := s.materialRepo.UpsertCustomerPrice(ctx, quotation.CustomerID, line.MaterialID, line.UnitPrice, now); err != nil {
			result.PriceHistory.Err = fmt.Errorf("failed to save price for material %s: %w", line.MaterialID, err)
			s.logger.Warn("customer material price not saved",
				zap.String("quotation_id", quotation.ID.String()),
				zap.String("customer_id", quotation.CustomerID.String()),
				zap.String("material_id", line.MaterialID.String()),
				zap.Error(err))
			break
		}
	}

	result.Quotation.Warnings = result.Warnings()
	return result
}

func (s *QuotationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuotationDTO, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	dto := mapper.ToQuotationDTO(quotation)
	return &dto, nil
}

// Delete removes a quotation that no purchase order references. The row lock
// orders it against purchase order mutations, which lock the same row.
func (s *QuotationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.quotationRepo.GetForUpdate(ctx, tx, id); err != nil {
			if repository.IsNotFound(err) {
				return ErrQuotationNotFound
			}
			return fmt.Errorf("failed to get quotation: %w", err)
		}

		count, err := s.poRepo.CountByQuotation(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to count purchase orders: %w", err)
		}
		if count > 0 {
			return ErrQuotationInUse
		}

		if err := s.quotationRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete quotation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("quotation deleted", zap.String("quotation_id", id.String()))
	return nil
}

func (s *QuotationService) List(ctx context.Context, page, pageSize int, filters repository.QuotationFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	quotations, total, err := s.quotationRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = mapper.ToQuotationDTO(&quotations[i])
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}

func (s *QuotationService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.QuotationDTO, error) {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	quotations, err := s.quotationRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = mapper.ToQuotationDTO(&quotations[i])
	}
	return dtos, nil
}

// LineTotal returns quantity times unit price of a quotation line
func LineTotal(line domain.QuotationMaterial) decimal.Decimal {
	return line.Quantity.Mul(line.UnitPrice)
}

func customerName(requested string, customer *domain.Customer) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return customer.CustomerName
}
