package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PurchaseOrderService manages purchase orders. Every mutation runs in one
// transaction together with the status changes of the quotations it touches.
type PurchaseOrderService struct {
	poRepo        *repository.PurchaseOrderRepository
	quotationRepo *repository.QuotationRepository
	challanRepo   *repository.ChallanRepository
	customerRepo  *repository.CustomerRepository
	coordinator   *QuotationStatusCoordinator
	tx            *repository.Transactor
	logger        *zap.Logger
}

func NewPurchaseOrderService(
	poRepo *repository.PurchaseOrderRepository,
	quotationRepo *repository.QuotationRepository,
	challanRepo *repository.ChallanRepository,
	customerRepo *repository.CustomerRepository,
	coordinator *QuotationStatusCoordinator,
	tx *repository.Transactor,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		poRepo:        poRepo,
		quotationRepo: quotationRepo,
		challanRepo:   challanRepo,
		customerRepo:  customerRepo,
		coordinator:   coordinator,
		tx:            tx,
		logger:        logger,
	}
}

func (s *PurchaseOrderService) Create(ctx context.Context, req *domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	actorID := auth.ActorID(ctx)
	number := strings.TrimSpace(req.PurchaseOrderNo)

	po := &domain.PurchaseOrder{
		PurchaseOrderNo: number,
		Customer:        req.Customer,
		CustomerID:      req.CustomerID,
		Description:     req.Description,
		Status:          domain.PurchaseOrderStatusPending,
		QuotationID:     req.QuotationID,
		MaterialCosts:   req.MaterialCosts,
		CreatedBy:       actorID,
	}
	if req.Status != "" {
		po.Status = req.Status
	}

	var quotation *domain.Quotation
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.poRepo.NumberExists(ctx, tx, number, nil)
		if err != nil {
			return fmt.Errorf("failed to check purchase order number: %w", err)
		}
		if exists {
			return ErrDuplicatePONumber
		}

		locked, err := s.coordinator.Lock(ctx, tx, req.QuotationID)
		if err != nil {
			return err
		}
		if req.QuotationID != nil {
			q, ok := locked[*req.QuotationID]
			if !ok {
				return ErrReferencedQuotation
			}
			quotation = q
			if po.CustomerID == nil {
				po.CustomerID = &q.CustomerID
			}
		}

		if err := s.poRepo.Create(ctx, tx, po); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicatePONumber
			}
			return fmt.Errorf("failed to create purchase order: %w", err)
		}

		if req.QuotationID != nil {
			return s.coordinator.Sync(ctx, tx, *req.QuotationID, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order created",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("purchase_order_no", po.PurchaseOrderNo))

	dto := mapper.ToPurchaseOrderDTO(po, quotation)
	return &dto, nil
}

func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrderDTO, error) {
	po, err := s.poRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	var quotation *domain.Quotation
	if po.QuotationID != nil {
		quotation, err = s.quotationRepo.GetByID(ctx, nil, *po.QuotationID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get quotation: %w", err)
		}
	}

	dto := mapper.ToPurchaseOrderDTO(po, quotation)
	return &dto, nil
}

// Update edits a purchase order. When the quotation link changes the old
// quotation is released and the new one marked po_received in the same transaction.
func (s *PurchaseOrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePurchaseOrderRequest) (*domain.PurchaseOrderDTO, error) {
	actorID := auth.ActorID(ctx)
	number := strings.TrimSpace(req.PurchaseOrderNo)

	var po *domain.PurchaseOrder
	var quotation *domain.Quotation
	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		po, err = s.poRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrPurchaseOrderNotFound
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		if number != "" && number != po.PurchaseOrderNo {
			exists, err := s.poRepo.NumberExists(ctx, tx, number, &id)
			if err != nil {
				return fmt.Errorf("failed to check purchase order number: %w", err)
			}
			if exists {
				return ErrDuplicatePONumber
			}
			po.PurchaseOrderNo = number
		}

		oldQuotationID := po.QuotationID
		newQuotationID := req.QuotationID.Apply(oldQuotationID)
		relinked := !sameQuotation(oldQuotationID, newQuotationID)

		locked, err := s.coordinator.Lock(ctx, tx, oldQuotationID, newQuotationID)
		if err != nil {
			return err
		}
		if newQuotationID != nil {
			q, ok := locked[*newQuotationID]
			if !ok {
				return ErrReferencedQuotation
			}
			quotation = q
		}

		if req.Customer != "" {
			po.Customer = req.Customer
		}
		if req.Description != nil {
			po.Description = *req.Description
		}
		if req.Status != "" {
			po.Status = req.Status
		}
		po.CustomerID = req.CustomerID.Apply(po.CustomerID)
		po.QuotationID = newQuotationID
		po.MaterialCosts = applyMaterialCosts(req.MaterialCosts, po.MaterialCosts)
		po.UpdatedBy = &actorID
		if po.CustomerID == nil && quotation != nil {
			po.CustomerID = &quotation.CustomerID
		}

		if err := s.poRepo.Update(ctx, tx, po); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicatePONumber
			}
			return fmt.Errorf("failed to update purchase order: %w", err)
		}

		if !relinked {
			return nil
		}
		if oldQuotationID != nil {
			if _, ok := locked[*oldQuotationID]; ok {
				if err := s.coordinator.Sync(ctx, tx, *oldQuotationID, actorID); err != nil {
					return err
				}
			}
		}
		if newQuotationID != nil {
			return s.coordinator.Sync(ctx, tx, *newQuotationID, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order updated",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("purchase_order_no", po.PurchaseOrderNo))

	dto := mapper.ToPurchaseOrderDTO(po, quotation)
	return &dto, nil
}

// applyMaterialCosts keeps current when costs were omitted. Null or an empty
// list clears them.
func applyMaterialCosts(costs domain.Optional[domain.MaterialCosts], current domain.MaterialCosts) domain.MaterialCosts {
	applied := costs.Apply(&current)
	if applied == nil || len(*applied) == 0 {
		return nil
	}
	return *applied
}

// Delete removes a purchase order with its challans and releases its quotation
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	actorID := auth.ActorID(ctx)

	return s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		po, err := s.poRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrPurchaseOrderNotFound
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}

		locked, err := s.coordinator.Lock(ctx, tx, po.QuotationID)
		if err != nil {
			return err
		}

		if err := s.challanRepo.DeleteByPurchaseOrder(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete challans: %w", err)
		}
		if err := s.poRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("failed to delete purchase order: %w", err)
		}

		if po.QuotationID != nil {
			if _, ok := locked[*po.QuotationID]; ok {
				if err := s.coordinator.Sync(ctx, tx, *po.QuotationID, actorID); err != nil {
					return err
				}
			}
		}

		s.logger.Info("purchase order deleted",
			zap.String("purchase_order_id", id.String()),
			zap.String("purchase_order_no", po.PurchaseOrderNo))
		return nil
	})
}

func (s *PurchaseOrderService) List(ctx context.Context, page, pageSize int, filters repository.PurchaseOrderFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	orders, total, err := s.poRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	dtos := make([]domain.PurchaseOrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToPurchaseOrderDTO(&orders[i], nil)
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}
