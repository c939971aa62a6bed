package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

// QuotationFilters narrows quotation listings
type QuotationFilters struct {
	CustomerID *uuid.UUID
	Status     *domain.QuotationStatus
	Search     string
}

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func (r *QuotationRepository) Create(ctx context.Context, quotation *domain.Quotation) error {
	return r.db.WithContext(ctx).Create(quotation).Error
}

// GetByID loads a quotation; tx may be nil
func (r *QuotationRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quotation, error) {
	var quotation domain.Quotation
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&quotation).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

// GetForUpdate loads and row-locks a quotation inside tx
func (r *QuotationRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quotation, error) {
	var quotation domain.Quotation
	if err := forUpdate(conn(ctx, r.db, tx)).Where("id = ?", id).First(&quotation).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

// Update saves every column except status, which only UpdateStatus writes
func (r *QuotationRepository) Update(ctx context.Context, tx *gorm.DB, quotation *domain.Quotation) error {
	return conn(ctx, r.db, tx).Omit("status").Save(quotation).Error
}

// UpdateStatus sets the status of a quotation and stamps the acting user
func (r *QuotationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.QuotationStatus, updatedBy uuid.UUID) error {
	result := conn(ctx, r.db, tx).
		Model(&domain.Quotation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *QuotationRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := conn(ctx, r.db, tx).Delete(&domain.Quotation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *QuotationRepository) List(ctx context.Context, page, pageSize int, filters QuotationFilters) ([]domain.Quotation, int64, error) {
	var quotations []domain.Quotation
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quotation{})
	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(customer_name) LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("created_at DESC").Find(&quotations).Error
	return quotations, total, err
}

func (r *QuotationRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&quotations).Error
	return quotations, err
}
