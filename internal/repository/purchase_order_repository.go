package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// PurchaseOrderFilters narrows purchase order listings
type PurchaseOrderFilters struct {
	Customer    string
	Status      *domain.PurchaseOrderStatus
	QuotationID *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
	Search      string
}

type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

func (r *PurchaseOrderRepository) Create(ctx context.Context, tx *gorm.DB, po *domain.PurchaseOrder) error {
	return conn(ctx, r.db, tx).Create(po).Error
}

func (r *PurchaseOrderRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// GetForUpdate loads and row-locks a purchase order inside tx.
// Holding this lock serializes challan creation for the order.
func (r *PurchaseOrderRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	if err := forUpdate(conn(ctx, r.db, tx)).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *PurchaseOrderRepository) Update(ctx context.Context, tx *gorm.DB, po *domain.PurchaseOrder) error {
	return conn(ctx, r.db, tx).Save(po).Error
}

func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.PurchaseOrderStatus) error {
	result := conn(ctx, r.db, tx).
		Model(&domain.PurchaseOrder{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PurchaseOrderRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := conn(ctx, r.db, tx).Delete(&domain.PurchaseOrder{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NumberExists checks whether another purchase order already uses number.
// excludeID skips the order being updated.
func (r *PurchaseOrderRepository) NumberExists(ctx context.Context, tx *gorm.DB, number string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := conn(ctx, r.db, tx).Model(&domain.PurchaseOrder{}).Where("purchase_order_no = ?", number)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByQuotation returns how many purchase orders reference the quotation
func (r *PurchaseOrderRepository) CountByQuotation(ctx context.Context, tx *gorm.DB, quotationID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&domain.PurchaseOrder{}).Where("quotation_id = ?", quotationID).Count(&count).Error
	return count, err
}

func (r *PurchaseOrderRepository) List(ctx context.Context, page, pageSize int, filters PurchaseOrderFilters) ([]domain.PurchaseOrder, int64, error) {
	var orders []domain.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.PurchaseOrder{})
	if filters.Customer != "" {
		query = query.Where("LOWER(customer) LIKE ?", likePattern(filters.Customer))
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.QuotationID != nil {
		query = query.Where("quotation_id = ?", *filters.QuotationID)
	}
	if filters.StartDate != nil {
		query = query.Where("created_at >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("created_at < ?", *filters.EndDate)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(purchase_order_no) LIKE ? OR LOWER(customer) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("created_at DESC").Find(&orders).Error
	return orders, total, err
}

// CountCreatedBetween counts purchase orders with status created in [from, to).
// Nil bounds are open.
func (r *PurchaseOrderRepository) CountCreatedBetween(ctx context.Context, from, to *time.Time, status domain.PurchaseOrderStatus) (int64, error) {
	var count int64
	err := createdWithin(r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}), "purchase_orders", from, to).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// SumQuotationTotals adds up the total_price of the quotations behind purchase
// orders with status created in [from, to). Orders without a quotation add nothing.
func (r *PurchaseOrderRepository) SumQuotationTotals(ctx context.Context, from, to *time.Time, status domain.PurchaseOrderStatus) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := createdWithin(r.db.WithContext(ctx).Model(&domain.PurchaseOrder{}), "purchase_orders", from, to).
		Select("COALESCE(SUM(quotations.total_price), 0) AS total").
		Joins("JOIN quotations ON quotations.id = purchase_orders.quotation_id").
		Where("purchase_orders.status = ?", status).
		Scan(&row).Error
	return row.Total, err
}
