package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

type TaxRepository struct {
	db *gorm.DB
}

func NewTaxRepository(db *gorm.DB) *TaxRepository {
	return &TaxRepository{db: db}
}

func (r *TaxRepository) Create(ctx context.Context, tx *gorm.DB, tax *domain.Tax) error {
	return conn(ctx, r.db, tx).Create(tax).Error
}

func (r *TaxRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Tax, error) {
	var tax domain.Tax
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&tax).Error; err != nil {
		return nil, err
	}
	return &tax, nil
}

// ListAll returns every tax row, grouped by service type with the newest window first
func (r *TaxRepository) ListAll(ctx context.Context) ([]domain.Tax, error) {
	var taxes []domain.Tax
	err := r.db.WithContext(ctx).
		Order("service_type ASC").
		Order("effective_from DESC").
		Find(&taxes).Error
	return taxes, err
}

// GetOpen returns the row of serviceType that has no end date
func (r *TaxRepository) GetOpen(ctx context.Context, serviceType domain.MaterialType) (*domain.Tax, error) {
	var tax domain.Tax
	err := r.db.WithContext(ctx).
		Where("service_type = ? AND effective_to IS NULL", serviceType).
		Order("effective_from DESC").
		First(&tax).Error
	if err != nil {
		return nil, err
	}
	return &tax, nil
}

// GetOpenForUpdate locks the open row of serviceType inside tx.
// Concurrent rate changes for the same service type queue on this lock.
func (r *TaxRepository) GetOpenForUpdate(ctx context.Context, tx *gorm.DB, serviceType domain.MaterialType) (*domain.Tax, error) {
	var tax domain.Tax
	err := forUpdate(conn(ctx, r.db, tx)).
		Where("service_type = ? AND effective_to IS NULL", serviceType).
		Order("effective_from DESC").
		First(&tax).Error
	if err != nil {
		return nil, err
	}
	return &tax, nil
}

// Close ends an open window at the given instant. It returns
// gorm.ErrRecordNotFound when the row is already closed.
func (r *TaxRepository) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	result := conn(ctx, r.db, tx).
		Model(&domain.Tax{}).
		Where("id = ? AND effective_to IS NULL", id).
		Updates(map[string]interface{}{
			"effective_to": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindEffective returns the row of serviceType whose window [effective_from, effective_to)
// contains at. When windows overlap the one that started latest wins.
func (r *TaxRepository) FindEffective(ctx context.Context, serviceType domain.MaterialType, at time.Time) (*domain.Tax, error) {
	var tax domain.Tax
	err := r.db.WithContext(ctx).
		Where("service_type = ?", serviceType).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to > ?", at).
		Order("effective_from DESC").
		First(&tax).Error
	if err != nil {
		return nil, err
	}
	return &tax, nil
}

// History returns all windows of serviceType, newest first
func (r *TaxRepository) History(ctx context.Context, serviceType domain.MaterialType) ([]domain.Tax, error) {
	var taxes []domain.Tax
	err := r.db.WithContext(ctx).
		Where("service_type = ?", serviceType).
		Order("effective_from DESC").
		Find(&taxes).Error
	return taxes, err
}

func (r *TaxRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tax{}).Count(&count).Error
	return count, err
}
