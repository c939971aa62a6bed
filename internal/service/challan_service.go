package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// ChallanService issues delivery challans against purchase orders.
type ChallanService struct {
	challanRepo   *repository.ChallanRepository
	poRepo        *repository.PurchaseOrderRepository
	quotationRepo *repository.QuotationRepository
	customerRepo  *repository.CustomerRepository
	allocator     *NumberAllocator
	tx            *repository.Transactor
	clock         clock.Clock
	logger        *zap.Logger
}

func NewChallanService(
	challanRepo *repository.ChallanRepository,
	poRepo *repository.PurchaseOrderRepository,
	quotationRepo *repository.QuotationRepository,
	customerRepo *repository.CustomerRepository,
	allocator *NumberAllocator,
	tx *repository.Transactor,
	clk clock.Clock,
	logger *zap.Logger,
) *ChallanService {
	return &ChallanService{
		challanRepo:   challanRepo,
		poRepo:        poRepo,
		quotationRepo: quotationRepo,
		customerRepo:  customerRepo,
		allocator:     allocator,
		tx:            tx,
		clock:         clk,
		logger:        logger,
	}
}

// loadLedger reads the purchase order's quotation and issued challans.
// When lock is set the purchase order row is locked for the rest of tx.
func (s *ChallanService) loadLedger(ctx context.Context, tx *gorm.DB, poID uuid.UUID, lock bool) (*domain.PurchaseOrder, *domain.Quotation, []domain.Challan, error) {
	var po *domain.PurchaseOrder
	var err error
	if lock {
		po, err = s.poRepo.GetForUpdate(ctx, tx, poID)
	} else {
		po, err = s.poRepo.GetByID(ctx, tx, poID)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, nil, ErrPurchaseOrderNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if po.QuotationID == nil {
		return po, nil, nil, ErrNoQuotationLinked
	}
	quotation, err := s.quotationRepo.GetByID(ctx, tx, *po.QuotationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return po, nil, nil, ErrNoQuotationLinked
		}
		return nil, nil, nil, fmt.Errorf("failed to get quotation: %w", err)
	}

	challans, err := s.challanRepo.ListByPurchaseOrder(ctx, tx, po.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list challans: %w", err)
	}
	return po, quotation, challans, nil
}

// AvailableMaterials returns the delivery balance of every deliverable line of a purchase order
func (s *ChallanService) AvailableMaterials(ctx context.Context, poID uuid.UUID) (*domain.AvailableMaterialsDTO, error) {
	po, quotation, challans, err := s.loadLedger(ctx, nil, poID, false)
	if err != nil {
		return nil, err
	}

	balances := Reconcile(quotation.Materials, challans)
	materials := make([]domain.AvailableMaterialDTO, len(balances))
	for i, b := range balances {
		line := b.Line
		line.Quantity = b.Original
		materials[i] = domain.AvailableMaterialDTO{
			QuotationMaterial: line,
			OriginalQuantity:  b.Original,
			DeliveredQuantity: b.Delivered,
			RemainingQuantity: b.Remaining,
			CanDeliver:        b.CanDeliver(),
		}
	}

	result := &domain.AvailableMaterialsDTO{
		PurchaseOrder: domain.PurchaseOrderRefDTO{
			ID:              po.ID,
			PurchaseOrderNo: po.PurchaseOrderNo,
			Customer:        po.Customer,
		},
		Quotation: domain.QuotationRefDTO{
			ID:    quotation.ID,
			Title: quotation.Title,
		},
		Materials: materials,
	}

	customerID := quotation.CustomerID
	if po.CustomerID != nil {
		customerID = *po.CustomerID
	}
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err == nil {
		dto := mapper.ToCustomerDTO(customer)
		result.Customer = &dto
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return result, nil
}

// Create validates the requested lines against the live delivery balance and
// stores the challan. Locking the purchase order serializes concurrent
// deliveries against it, and the challan number is allocated in the same
// transaction. The purchase order is marked delivered once nothing remains.
func (s *ChallanService) Create(ctx context.Context, req *domain.CreateChallanRequest) (*domain.ChallanDTO, error) {
	actorID := auth.ActorID(ctx)

	var challan *domain.Challan
	var delivered bool
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		po, quotation, previous, err := s.loadLedger(ctx, tx, req.PurchaseOrderID, true)
		if err != nil {
			return err
		}

		balances := Reconcile(quotation.Materials, previous)
		if violations := ValidateChallanLines(quotation.Materials, balances, req.Materials); len(violations) > 0 {
			return &ValidationError{Message: "Validation errors", Errors: violations}
		}

		names := make(map[uuid.UUID]domain.QuotationMaterial, len(balances))
		for _, b := range balances {
			names[b.Line.MaterialID] = b.Line
		}
		lines := make(domain.ChallanMaterials, len(req.Materials))
		total := decimal.Zero
		for i, l := range req.Materials {
			contracted := names[l.MaterialID]
			lines[i] = domain.ChallanMaterial{
				MaterialID:   l.MaterialID,
				MaterialName: contracted.Name,
				Quantity:     l.Quantity,
				Unit:         contracted.Unit,
			}
			total = total.Add(l.Quantity)
		}

		number, err := s.allocator.NextChallanNumber(ctx, tx)
		if err != nil {
			return err
		}

		customerID := quotation.CustomerID
		customerName := quotation.CustomerName
		if po.CustomerID != nil {
			customerID = *po.CustomerID
		}
		if po.Customer != "" {
			customerName = po.Customer
		}

		now := s.clock.Now()
		challan = &domain.Challan{
			ChallanNo:       number,
			PurchaseOrderID: po.ID,
			QuotationID:     &quotation.ID,
			CustomerID:      customerID,
			CustomerName:    customerName,
			Materials:       lines,
			TotalQuantity:   total,
			ChallanDate:     truncateToDate(now),
			Notes:           strings.TrimSpace(req.Notes),
			CreatedBy:       actorID,
		}
		if err := s.challanRepo.Create(ctx, tx, challan); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateChallanNumber
			}
			return fmt.Errorf("failed to create challan: %w", err)
		}

		after := Reconcile(quotation.Materials, append(previous, *challan))
		if Fulfilled(after) && po.Status != domain.PurchaseOrderStatusDelivered {
			if err := s.poRepo.UpdateStatus(ctx, tx, po.ID, domain.PurchaseOrderStatusDelivered); err != nil {
				return fmt.Errorf("failed to mark purchase order delivered: %w", err)
			}
			delivered = true
		}
		return nil
	})
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			s.logger.Info("challan rejected",
				zap.String("purchase_order_id", req.PurchaseOrderID.String()),
				zap.Strings("violations", ve.Errors))
		}
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateChallanNumber
		}
		return nil, err
	}

	s.logger.Info("challan created",
		zap.String("challan_id", challan.ID.String()),
		zap.String("challan_no", challan.ChallanNo),
		zap.String("purchase_order_id", challan.PurchaseOrderID.String()),
		zap.Bool("purchase_order_delivered", delivered))

	dto := mapper.ToChallanDTO(challan)
	return &dto, nil
}

func (s *ChallanService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChallanDTO, error) {
	challan, err := s.challanRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrChallanNotFound
		}
		return nil, fmt.Errorf("failed to get challan: %w", err)
	}
	dto := mapper.ToChallanDTO(challan)
	return &dto, nil
}

// Delete removes a challan. A delivered purchase order that regains remaining
// quantity goes back to pending.
func (s *ChallanService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		challan, err := s.challanRepo.GetByID(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrChallanNotFound
			}
			return fmt.Errorf("failed to get challan: %w", err)
		}

		po, err := s.poRepo.GetForUpdate(ctx, tx, challan.PurchaseOrderID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		if err := s.challanRepo.Delete(ctx, tx, id); err != nil {
			if repository.IsNotFound(err) {
				return ErrChallanNotFound
			}
			return fmt.Errorf("failed to delete challan: %w", err)
		}

		if po != nil && po.Status == domain.PurchaseOrderStatusDelivered {
			_, quotation, remaining, err := s.loadLedger(ctx, tx, po.ID, false)
			if err != nil && !errors.Is(err, ErrNoQuotationLinked) {
				return err
			}
			if quotation != nil && !Fulfilled(Reconcile(quotation.Materials, remaining)) {
				if err := s.poRepo.UpdateStatus(ctx, tx, po.ID, domain.PurchaseOrderStatusPending); err != nil {
					return fmt.Errorf("failed to reopen purchase order: %w", err)
				}
			}
		}

		s.logger.Info("challan deleted",
			zap.String("challan_id", id.String()),
			zap.String("challan_no", challan.ChallanNo))
		return nil
	})
}

// History lists the challans of a purchase order with delivery totals per material
func (s *ChallanService) History(ctx context.Context, poID uuid.UUID) (*domain.ChallanHistoryDTO, error) {
	if _, err := s.poRepo.GetByID(ctx, nil, poID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	challans, err := s.challanRepo.ListByPurchaseOrder(ctx, nil, poID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challans: %w", err)
	}

	summary := domain.ChallanHistorySummaryDTO{
		TotalChallans:          len(challans),
		TotalQuantityDelivered: decimal.Zero,
		MaterialsSummary:       make(map[uuid.UUID]domain.MaterialDeliverySummaryDTO),
	}
	dtos := make([]domain.ChallanDTO, len(challans))
	for i := range challans {
		dtos[i] = mapper.ToChallanDTO(&challans[i])
		for _, line := range challans[i].Materials {
			summary.TotalQuantityDelivered = summary.TotalQuantityDelivered.Add(line.Quantity)
			entry := summary.MaterialsSummary[line.MaterialID]
			entry.MaterialName = line.MaterialName
			entry.TotalDelivered = entry.TotalDelivered.Add(line.Quantity)
			summary.MaterialsSummary[line.MaterialID] = entry
		}
	}

	return &domain.ChallanHistoryDTO{Challans: dtos, Summary: summary}, nil
}

func (s *ChallanService) List(ctx context.Context, page, pageSize int, filters repository.ChallanFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	challans, total, err := s.challanRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list challans: %w", err)
	}

	dtos := make([]domain.ChallanDTO, len(challans))
	for i := range challans {
		dtos[i] = mapper.ToChallanDTO(&challans[i])
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
