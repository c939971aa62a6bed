package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, material *domain.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *MaterialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Material, error) {
	var material domain.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// GetByIDs returns the materials that exist among ids, keyed by id
func (r *MaterialRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Material, error) {
	result := make(map[uuid.UUID]domain.Material, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var materials []domain.Material
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, m := range materials {
		result[m.ID] = m
	}
	return result, nil
}

func (r *MaterialRepository) Update(ctx context.Context, material *domain.Material) error {
	return r.db.WithContext(ctx).Save(material).Error
}

func (r *MaterialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Material{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MaterialRepository) List(ctx context.Context, page, pageSize int, search string, materialType *domain.MaterialType) ([]domain.Material, int64, error) {
	var materials []domain.Material
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Material{})
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if materialType != nil {
		query = query.Where("material_type = ?", *materialType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("name ASC").Find(&materials).Error
	return materials, total, err
}

// UpsertCustomerPrice records price as the last price quoted to customerID for materialID
func (r *MaterialRepository) UpsertCustomerPrice(ctx context.Context, customerID, materialID uuid.UUID, price decimal.Decimal, at time.Time) error {
	row := domain.CustomerMaterialPrice{
		CustomerID: customerID,
		MaterialID: materialID,
		LastPrice:  price,
		UpdatedAt:  at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_price", "updated_at"}),
	}).Create(&row).Error
}
