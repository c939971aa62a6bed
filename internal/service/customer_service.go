package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

type CustomerService struct {
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

func NewCustomerService(customerRepo *repository.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.CustomerDTO, error) {
	customer := &domain.Customer{}
	applyCustomerRequest(customer, req)

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("customer created", zap.String("customer_id", customer.ID.String()))

	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.CustomerDTO, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	applyCustomerRequest(customer, req)

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	dto := mapper.ToCustomerDTO(customer)
	return &dto, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	return nil
}

func (s *CustomerService) List(ctx context.Context, page, pageSize int, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	customers, total, err := s.customerRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	dtos := make([]domain.CustomerDTO, len(customers))
	for i := range customers {
		dtos[i] = mapper.ToCustomerDTO(&customers[i])
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}

// MaterialPrices returns the last price quoted to the customer for each material
func (s *CustomerService) MaterialPrices(ctx context.Context, id uuid.UUID) ([]domain.CustomerMaterialPriceDTO, error) {
	if _, err := s.customerRepo.GetByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	prices, err := s.customerRepo.ListMaterialPrices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer material prices: %w", err)
	}

	dtos := make([]domain.CustomerMaterialPriceDTO, len(prices))
	for i, p := range prices {
		dtos[i] = mapper.ToCustomerMaterialPriceDTO(p)
	}
	return dtos, nil
}

func applyCustomerRequest(customer *domain.Customer, req *domain.CreateCustomerRequest) {
	customer.CustomerName = strings.TrimSpace(req.CustomerName)
	customer.CompanyName = req.CompanyName
	customer.Address = req.Address
	customer.CompanyAddress = req.CompanyAddress
	customer.TelephoneNumber = req.TelephoneNumber
	customer.Fax = req.Fax
	customer.NTN = req.NTN
}
