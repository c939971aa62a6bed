package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.Customer, int64, error) {
	var customers []domain.Customer
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Customer{})

	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(customer_name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(ntn) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Offset(offset(page, pageSize)).Limit(pageSize).Order("created_at DESC").Find(&customers).Error
	return customers, total, err
}

// MaterialPrice pairs a catalogue material with the last price quoted to a customer
type MaterialPrice struct {
	Material domain.Material
	Price    domain.CustomerMaterialPrice
}

// ListMaterialPrices returns the last quoted price per material for a customer,
// most recently updated first
func (r *CustomerRepository) ListMaterialPrices(ctx context.Context, customerID uuid.UUID) ([]MaterialPrice, error) {
	var prices []domain.CustomerMaterialPrice
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("updated_at DESC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return []MaterialPrice{}, nil
	}

	ids := make([]uuid.UUID, 0, len(prices))
	for _, p := range prices {
		ids = append(ids, p.MaterialID)
	}
	var materials []domain.Material
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&materials).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Material, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}

	result := make([]MaterialPrice, 0, len(prices))
	for _, p := range prices {
		m, ok := byID[p.MaterialID]
		if !ok {
			continue
		}
		result = append(result, MaterialPrice{Material: m, Price: p})
	}
	return result, nil
}
