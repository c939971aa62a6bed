package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type InvoiceService struct {
	invoiceRepo   *repository.InvoiceRepository
	customerRepo  *repository.CustomerRepository
	quotationRepo *repository.QuotationRepository
	poRepo        *repository.PurchaseOrderRepository
	taxes         *TaxService
	clock         clock.Clock
	logger        *zap.Logger
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	quotationRepo *repository.QuotationRepository,
	poRepo *repository.PurchaseOrderRepository,
	taxes *TaxService,
	clk clock.Clock,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		customerRepo:  customerRepo,
		quotationRepo: quotationRepo,
		poRepo:        poRepo,
		taxes:         taxes,
		clock:         clk,
		logger:        logger,
	}
}

// ChequeAmount is the amount expected on the cheque for a paid invoice:
// total plus withholding at rate percent when withHold is set, otherwise total.
func ChequeAmount(total decimal.Decimal, withHold bool, rate decimal.Decimal) decimal.Decimal {
	if !withHold {
		return total.Round(2)
	}
	return total.Add(total.Mul(rate).Div(hundred)).Round(2)
}

func (s *InvoiceService) validateReferences(ctx context.Context, req *domain.CreateInvoiceRequest) error {
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if repository.IsNotFound(err) {
			return ErrReferencedCustomer
		}
		return fmt.Errorf("failed to get customer: %w", err)
	}
	if req.QuotationID != nil {
		if _, err := s.quotationRepo.GetByID(ctx, nil, *req.QuotationID); err != nil {
			if repository.IsNotFound(err) {
				return ErrReferencedQuotation
			}
			return fmt.Errorf("failed to get quotation: %w", err)
		}
	}
	if req.PurchaseOrderID != nil {
		if _, err := s.poRepo.GetByID(ctx, nil, *req.PurchaseOrderID); err != nil {
			if repository.IsNotFound(err) {
				return ErrReferencedPO
			}
			return fmt.Errorf("failed to get purchase order: %w", err)
		}
	}
	if req.TotalAmount.IsNegative() {
		return InvalidInput("Total amount must not be negative")
	}
	return nil
}

// applyInvoiceRequest copies req onto invoice and derives the cheque amount
func (s *InvoiceService) applyInvoiceRequest(ctx context.Context, invoice *domain.Invoice, req *domain.CreateInvoiceRequest) error {
	depositDate, err := parseOptionalDate(req.DepositDate)
	if err != nil {
		return err
	}

	invoice.CustomerID = req.CustomerID
	invoice.QuotationID = req.QuotationID
	invoice.PurchaseOrderID = req.PurchaseOrderID
	invoice.TotalAmount = req.TotalAmount
	invoice.InvoiceType = req.InvoiceType
	invoice.Description = req.Description
	invoice.WithHoldTax = req.WithHoldTax
	invoice.VoucherNo = req.VoucherNo
	invoice.Bank = req.Bank
	invoice.DepositDate = depositDate
	invoice.DWBank = req.DWBank
	invoice.TaxDeducted = decimal.Zero
	if req.TaxDeducted != nil {
		invoice.TaxDeducted = *req.TaxDeducted
	}
	if req.Status != "" {
		invoice.Status = req.Status
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceStatusUnpaid
	}

	if req.ChequeAmount != nil {
		invoice.ChequeAmount = decimal.NewNullDecimal(*req.ChequeAmount)
	}
	if invoice.Status != domain.InvoiceStatusPaid {
		return nil
	}

	rate := decimal.Zero
	if invoice.WithHoldTax {
		percent, found, err := s.taxes.ResolvePercent(ctx, invoice.InvoiceType, s.clock.Now())
		if err != nil {
			return err
		}
		if found {
			rate = percent
		} else {
			s.logger.Warn("no tax rate for withholding, cheque amount equals total",
				zap.String("invoice_type", string(invoice.InvoiceType)))
		}
	}
	invoice.ChequeAmount = decimal.NewNullDecimal(ChequeAmount(invoice.TotalAmount, invoice.WithHoldTax, rate))
	return nil
}

func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.InvoiceDTO, error) {
	if err := s.validateReferences(ctx, req); err != nil {
		return nil, err
	}

	invoice := &domain.Invoice{CreatedBy: auth.ActorID(ctx)}
	if err := s.applyInvoiceRequest(ctx, invoice, req); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", string(invoice.Status)))

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if err := s.validateReferences(ctx, req); err != nil {
		return nil, err
	}

	actorID := auth.ActorID(ctx)
	invoice.UpdatedBy = &actorID
	if err := s.applyInvoiceRequest(ctx, invoice, req); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filters repository.InvoiceFilters) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i])
	}
	return newPaginatedResponse(dtos, total, page, pageSize), nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339. Bare dates mean 00:00 UTC.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, InvalidInput("Date must be YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
