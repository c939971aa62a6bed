package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/document"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
)

// PaidInvoiceColumns is the header row of the paid invoice export
var PaidInvoiceColumns = []string{
	"Invoice Date",
	"Invoice No",
	"Customer Name",
	"NTN No.",
	"PO No.",
	"Work Detail",
	"Work Amount",
	"GST %age",
	"GST Amount",
	"Amount with GST",
	"W.H Tax %age",
	"W.H Tax Deduction",
	"Cheque Amount",
	"Voucher No",
	"Bank",
	"Deposit Date",
	"Aging (days)",
}

const exportDateLayout = "02/01/2006"

type ExportService struct {
	invoiceRepo  *repository.InvoiceRepository
	customerRepo *repository.CustomerRepository
	poRepo       *repository.PurchaseOrderRepository
	taxes        *TaxService
	clock        clock.Clock
	logger       *zap.Logger
}

func NewExportService(
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	poRepo *repository.PurchaseOrderRepository,
	taxes *TaxService,
	clk clock.Clock,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		poRepo:       poRepo,
		taxes:        taxes,
		clock:        clk,
		logger:       logger,
	}
}

// ValidateRange checks an export period. Both ends are calendar dates and the
// end date is included.
func ValidateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return InvalidInput("Start date and end date are required")
	}
	if to.Before(from) {
		return InvalidInput("End date must not be before start date")
	}
	return nil
}

// exportLookups caches the customers and purchase orders referenced by the
// exported invoices.
type exportLookups struct {
	customers map[uuid.UUID]*domain.Customer
	pos       map[uuid.UUID]*domain.PurchaseOrder
}

func (s *ExportService) customer(ctx context.Context, l *exportLookups, id uuid.UUID) (*domain.Customer, error) {
	if c, ok := l.customers[id]; ok {
		return c, nil
	}
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	l.customers[id] = c
	return c, nil
}

func (s *ExportService) purchaseOrder(ctx context.Context, l *exportLookups, id *uuid.UUID) (*domain.PurchaseOrder, error) {
	if id == nil {
		return nil, nil
	}
	if po, ok := l.pos[*id]; ok {
		return po, nil
	}
	po, err := s.poRepo.GetByID(ctx, nil, *id)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	l.pos[*id] = po
	return po, nil
}

// WritePaidInvoicesCSV streams paid invoices deposited between from and to
// inclusive. GST applies to material invoices and withholding to service
// invoices, each at the rate in force on the invoice date.
func (s *ExportService) WritePaidInvoicesCSV(ctx context.Context, from, to time.Time, w io.Writer) (int, error) {
	if err := ValidateRange(from, to); err != nil {
		return 0, err
	}
	start := truncateToDate(from)
	end := truncateToDate(to).Add(24*time.Hour - time.Second)

	invoices, err := s.invoiceRepo.ListPaidBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to list paid invoices: %w", err)
	}

	out := document.NewCSVWriter(w)
	if err := out.Write(PaidInvoiceColumns); err != nil {
		return 0, err
	}

	lookups := &exportLookups{
		customers: make(map[uuid.UUID]*domain.Customer),
		pos:       make(map[uuid.UUID]*domain.PurchaseOrder),
	}
	now := s.clock.Now()
	for i := range invoices {
		row, err := s.paidInvoiceRow(ctx, lookups, &invoices[i], now)
		if err != nil {
			return i, err
		}
		if err := out.Write(row); err != nil {
			return i, err
		}
	}
	if err := out.Flush(); err != nil {
		return len(invoices), err
	}

	s.logger.Info("paid invoices exported",
		zap.Time("from", start),
		zap.Time("to", end),
		zap.Int("rows", len(invoices)))
	return len(invoices), nil
}

func (s *ExportService) paidInvoiceRow(ctx context.Context, l *exportLookups, inv *domain.Invoice, now time.Time) ([]string, error) {
	customer, err := s.customer(ctx, l, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	po, err := s.purchaseOrder(ctx, l, inv.PurchaseOrderID)
	if err != nil {
		return nil, err
	}

	gstPercent, whPercent := decimal.Zero, decimal.Zero
	rate, found, err := s.taxes.ResolvePercent(ctx, inv.InvoiceType, inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if found {
		if inv.InvoiceType == domain.MaterialTypeMaterial {
			gstPercent = rate
		} else {
			whPercent = rate
		}
	}

	work := inv.TotalAmount
	gst := percentOf(work, gstPercent)

	var customerName, ntn, poNo, cheque, deposit string
	if customer != nil {
		customerName, ntn = customer.CustomerName, customer.NTN
	}
	if po != nil {
		poNo = po.PurchaseOrderNo
	}
	if inv.ChequeAmount.Valid {
		cheque = inv.ChequeAmount.Decimal.StringFixed(2)
	}
	if inv.DepositDate != nil {
		deposit = inv.DepositDate.Format(exportDateLayout)
	}
	aging := int(now.Sub(inv.CreatedAt).Hours() / 24)
	if aging < 0 {
		aging = 0
	}

	return []string{
		inv.CreatedAt.Format(exportDateLayout),
		inv.ID.String(),
		customerName,
		ntn,
		poNo,
		inv.Description,
		work.StringFixed(2),
		gstPercent.String() + "%",
		gst.StringFixed(2),
		work.Add(gst).StringFixed(2),
		whPercent.String() + "%",
		percentOf(work, whPercent).StringFixed(2),
		cheque,
		inv.VoucherNo,
		inv.Bank,
		deposit,
		fmt.Sprintf("%d", aging),
	}, nil
}
