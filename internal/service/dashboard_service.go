package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	invoiceRepo *repository.InvoiceRepository
	poRepo      *repository.PurchaseOrderRepository
	logger      *zap.Logger
}

func NewDashboardService(
	invoiceRepo *repository.InvoiceRepository,
	poRepo *repository.PurchaseOrderRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		invoiceRepo: invoiceRepo,
		poRepo:      poRepo,
		logger:      logger,
	}
}

// GetSummary counts invoices and purchase orders created between from and to.
// Both are calendar dates, the end date is included and either may be nil.
func (s *DashboardService) GetSummary(ctx context.Context, from, to *time.Time) (*domain.DashboardSummaryDTO, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, InvalidInput("End date must not be before start date")
	}

	summary := &domain.DashboardSummaryDTO{}
	var start, end *time.Time
	if from != nil {
		d := truncateToDate(*from)
		start = &d
		summary.Range.StartDate = formatDate(d)
	}
	if to != nil {
		d := truncateToDate(*to)
		summary.Range.EndDate = formatDate(d)
		next := d.Add(24 * time.Hour)
		end = &next
	}

	paid, unpaid := domain.InvoiceStatusPaid, domain.InvoiceStatusUnpaid
	delivered, pending := domain.PurchaseOrderStatusDelivered, domain.PurchaseOrderStatusPending

	g, gctx := errgroup.WithContext(ctx)

	countInvoices := func(dst *int64, status *domain.InvoiceStatus) func() error {
		return func() error {
			n, err := s.invoiceRepo.CountCreatedBetween(gctx, start, end, status)
			if err != nil {
				return fmt.Errorf("failed to count invoices: %w", err)
			}
			*dst = n
			return nil
		}
	}
	countOrders := func(dst *int64, status domain.PurchaseOrderStatus) func() error {
		return func() error {
			n, err := s.poRepo.CountCreatedBetween(gctx, start, end, status)
			if err != nil {
				return fmt.Errorf("failed to count purchase orders: %w", err)
			}
			*dst = n
			return nil
		}
	}
	sumOrders := func(dst *decimal.Decimal, status domain.PurchaseOrderStatus) func() error {
		return func() error {
			total, err := s.poRepo.SumQuotationTotals(gctx, start, end, status)
			if err != nil {
				return fmt.Errorf("failed to sum purchase order amounts: %w", err)
			}
			*dst = total
			return nil
		}
	}

	g.Go(countInvoices(&summary.Invoices.Total, nil))
	g.Go(countInvoices(&summary.Invoices.Paid, &paid))
	g.Go(countInvoices(&summary.Invoices.Unpaid, &unpaid))
	g.Go(countOrders(&summary.PurchaseOrders.Delivered, delivered))
	g.Go(countOrders(&summary.PurchaseOrders.Pending, pending))
	g.Go(sumOrders(&summary.Amounts.PurchaseOrders.Delivered, delivered))
	g.Go(sumOrders(&summary.Amounts.PurchaseOrders.Pending, pending))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("dashboard summary computed",
		zap.Int64("invoices", summary.Invoices.Total),
		zap.Int64("purchase_orders_pending", summary.PurchaseOrders.Pending))

	return summary, nil
}

func formatDate(t time.Time) *string {
	s := t.Format("2006-01-02")
	return &s
}
