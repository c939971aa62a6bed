package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"github.com/tradeflow/backoffice-api/internal/testutil"
	"go.uber.org/zap"
)

func TestDashboardService_GetSummary(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := service.NewDashboardService(repository.NewInvoiceRepository(db), repository.NewPurchaseOrderRepository(db), zap.NewNop())
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Peshawar Traders")
	pipe := testutil.CreateTestMaterial(t, db, "Pipe", domain.MaterialTypeMaterial, 100)

	delivered := func(po *domain.PurchaseOrder) {
		require.NoError(t, db.Model(po).Update("status", domain.PurchaseOrderStatusDelivered).Error)
	}
	invoice := func(status domain.InvoiceStatus) {
		createInvoice(t, db, &domain.Invoice{
			CustomerID:  customer.ID,
			Status:      status,
			TotalAmount: decimal.NewFromInt(100),
			InvoiceType: domain.MaterialTypeMaterial,
		})
	}

	// February activity, outside the March range
	clk.Set(time.Date(2025, 2, 8, 12, 0, 0, 0, time.UTC))
	old := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(pipe, 2))
	delivered(testutil.CreateTestPurchaseOrder(t, db, "PO-FEB", customer, old))
	invoice(domain.InvoiceStatusPaid)

	clk.Set(testutil.ReferenceTime)
	large := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(pipe, 10))
	small := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(pipe, 5))
	testutil.CreateTestPurchaseOrder(t, db, "PO-M1", customer, large)
	delivered(testutil.CreateTestPurchaseOrder(t, db, "PO-M2", customer, small))
	testutil.CreateTestPurchaseOrder(t, db, "PO-M3", customer, nil)
	invoice(domain.InvoiceStatusPaid)
	invoice(domain.InvoiceStatusPaid)
	invoice(domain.InvoiceStatusUnpaid)

	date := func(s string) *time.Time {
		d, err := service.ParseDate(s)
		require.NoError(t, err)
		return &d
	}

	t.Run("end date is inclusive", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx, date("2025-03-01"), date("2025-03-10"))
		require.NoError(t, err)

		assert.Equal(t, domain.InvoiceCountsDTO{Total: 3, Paid: 2, Unpaid: 1}, summary.Invoices)
		assert.Equal(t, domain.PurchaseOrderCountsDTO{Delivered: 1, Pending: 2}, summary.PurchaseOrders)
		assert.True(t, summary.Amounts.PurchaseOrders.Delivered.Equal(decimal.NewFromInt(500)))
		assert.True(t, summary.Amounts.PurchaseOrders.Pending.Equal(decimal.NewFromInt(1000)), "orders without a quotation add nothing")
		require.NotNil(t, summary.Range.StartDate)
		require.NotNil(t, summary.Range.EndDate)
		assert.Equal(t, "2025-03-01", *summary.Range.StartDate)
		assert.Equal(t, "2025-03-10", *summary.Range.EndDate)
	})

	t.Run("open range covers everything", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, domain.InvoiceCountsDTO{Total: 4, Paid: 3, Unpaid: 1}, summary.Invoices)
		assert.Equal(t, domain.PurchaseOrderCountsDTO{Delivered: 2, Pending: 2}, summary.PurchaseOrders)
		assert.True(t, summary.Amounts.PurchaseOrders.Delivered.Equal(decimal.NewFromInt(700)))
		assert.Nil(t, summary.Range.StartDate)
		assert.Nil(t, summary.Range.EndDate)
	})

	t.Run("end date only", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx, nil, date("2025-02-28"))
		require.NoError(t, err)

		assert.Equal(t, int64(1), summary.Invoices.Total)
		assert.Equal(t, int64(1), summary.PurchaseOrders.Delivered)
		assert.Zero(t, summary.PurchaseOrders.Pending)
		assert.True(t, summary.Amounts.PurchaseOrders.Delivered.Equal(decimal.NewFromInt(200)))
		assert.True(t, summary.Amounts.PurchaseOrders.Pending.IsZero())
	})

	t.Run("reversed range", func(t *testing.T) {
		_, err := svc.GetSummary(ctx, date("2025-03-10"), date("2025-03-01"))
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}
