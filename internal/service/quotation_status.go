package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotationStatusCoordinator keeps quotation status in step with the purchase
// orders that reference it: po_received while at least one does, pending otherwise.
// All methods run inside the caller's transaction.
type QuotationStatusCoordinator struct {
	quotationRepo *repository.QuotationRepository
	poRepo        *repository.PurchaseOrderRepository
	logger        *zap.Logger
}

func NewQuotationStatusCoordinator(
	quotationRepo *repository.QuotationRepository,
	poRepo *repository.PurchaseOrderRepository,
	logger *zap.Logger,
) *QuotationStatusCoordinator {
	return &QuotationStatusCoordinator{
		quotationRepo: quotationRepo,
		poRepo:        poRepo,
		logger:        logger,
	}
}

// Lock row-locks the given quotations in id order and returns those that exist.
// Nil ids are skipped.
func (c *QuotationStatusCoordinator) Lock(ctx context.Context, tx *gorm.DB, ids ...*uuid.UUID) (map[uuid.UUID]*domain.Quotation, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })

	locked := make(map[uuid.UUID]*domain.Quotation, len(unique))
	for _, id := range unique {
		quotation, err := c.quotationRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to lock quotation: %w", err)
		}
		locked[id] = quotation
	}
	return locked, nil
}

// Sync sets the status of quotationID from the purchase orders that currently
// reference it. Call it after the purchase order write so the count is current.
func (c *QuotationStatusCoordinator) Sync(ctx context.Context, tx *gorm.DB, quotationID, actorID uuid.UUID) error {
	count, err := c.poRepo.CountByQuotation(ctx, tx, quotationID)
	if err != nil {
		return fmt.Errorf("failed to count purchase orders: %w", err)
	}

	status := domain.QuotationStatusPending
	if count > 0 {
		status = domain.QuotationStatusPOReceived
	}

	if err := c.quotationRepo.UpdateStatus(ctx, tx, quotationID, status, actorID); err != nil {
		if repository.IsNotFound(err) {
			return ErrReferencedQuotation
		}
		return fmt.Errorf("failed to update quotation status: %w", err)
	}

	c.logger.Debug("quotation status synced",
		zap.String("quotation_id", quotationID.String()),
		zap.String("status", string(status)),
		zap.Int64("purchase_orders", count))
	return nil
}

func sameQuotation(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
