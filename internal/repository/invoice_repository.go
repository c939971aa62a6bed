package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceFilters narrows invoice listings
type InvoiceFilters struct {
	CustomerID  *uuid.UUID
	Status      *domain.InvoiceStatus
	InvoiceType *domain.MaterialType
	Search      string
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, filters InvoiceFilters) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Invoice{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.InvoiceType != nil {
		query = query.Where("invoice_type = ?", *filters.InvoiceType)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(description) LIKE ? OR LOWER(voucher_no) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("created_at DESC").Find(&invoices).Error
	return invoices, total, err
}

// ListPaidBetween returns paid invoices whose deposit date falls in [from, to], oldest first
func (r *InvoiceRepository) ListPaidBetween(ctx context.Context, from, to time.Time) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.InvoiceStatusPaid).
		Where("deposit_date >= ? AND deposit_date <= ?", from, to).
		Order("deposit_date ASC").
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

// CountCreatedBetween counts invoices created in [from, to), optionally only
// those with status. Nil bounds are open.
func (r *InvoiceRepository) CountCreatedBetween(ctx context.Context, from, to *time.Time, status *domain.InvoiceStatus) (int64, error) {
	var count int64
	query := createdWithin(r.db.WithContext(ctx).Model(&domain.Invoice{}), "invoices", from, to)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	err := query.Count(&count).Error
	return count, err
}
