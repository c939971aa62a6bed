package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// ChallanFilters narrows challan listings
type ChallanFilters struct {
	Search          string
	PurchaseOrderID *uuid.UUID
	StartDate       *time.Time
	EndDate         *time.Time
}

type ChallanRepository struct {
	db *gorm.DB
}

func NewChallanRepository(db *gorm.DB) *ChallanRepository {
	return &ChallanRepository{db: db}
}

func (r *ChallanRepository) Create(ctx context.Context, tx *gorm.DB, challan *domain.Challan) error {
	return conn(ctx, r.db, tx).Create(challan).Error
}

func (r *ChallanRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Challan, error) {
	var challan domain.Challan
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&challan).Error; err != nil {
		return nil, err
	}
	return &challan, nil
}

// ListByPurchaseOrder returns every challan issued against a purchase order, newest first
func (r *ChallanRepository) ListByPurchaseOrder(ctx context.Context, tx *gorm.DB, purchaseOrderID uuid.UUID) ([]domain.Challan, error) {
	var challans []domain.Challan
	err := conn(ctx, r.db, tx).
		Where("purchase_order_id = ?", purchaseOrderID).
		Order("created_at DESC").
		Find(&challans).Error
	return challans, err
}

func (r *ChallanRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := conn(ctx, r.db, tx).Delete(&domain.Challan{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByPurchaseOrder removes all challans of a purchase order
func (r *ChallanRepository) DeleteByPurchaseOrder(ctx context.Context, tx *gorm.DB, purchaseOrderID uuid.UUID) error {
	return conn(ctx, r.db, tx).Delete(&domain.Challan{}, "purchase_order_id = ?", purchaseOrderID).Error
}

// MaxSequence returns the largest numeric suffix among challan numbers that
// start with prefix, or 0 when there are none.
func (r *ChallanRepository) MaxSequence(ctx context.Context, tx *gorm.DB, prefix string) (int, error) {
	var numbers []string
	err := conn(ctx, r.db, tx).
		Model(&domain.Challan{}).
		Where("challan_no LIKE ?", prefix+"%").
		Pluck("challan_no", &numbers).Error
	if err != nil {
		return 0, err
	}

	max := 0
	for _, n := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (r *ChallanRepository) List(ctx context.Context, page, pageSize int, filters ChallanFilters) ([]domain.Challan, int64, error) {
	var challans []domain.Challan
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Challan{})
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(challan_no) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}
	if filters.PurchaseOrderID != nil {
		query = query.Where("purchase_order_id = ?", *filters.PurchaseOrderID)
	}
	if filters.StartDate != nil {
		query = query.Where("challan_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("challan_date <= ?", *filters.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("created_at DESC").Find(&challans).Error
	return challans, total, err
}
