package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"github.com/tradeflow/backoffice-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createInvoiceService(db *gorm.DB, clk clock.Clock) *service.InvoiceService {
	return service.NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewQuotationRepository(db),
		repository.NewPurchaseOrderRepository(db),
		createTaxService(db, clk),
		clk,
		zap.NewNop(),
	)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestChequeAmount(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		withHold bool
		rate     string
		expected string
	}{
		{"no withholding", "1000", false, "16", "1000"},
		{"withholding adds rate", "1000", true, "16", "1160"},
		{"rounds to cents", "333.33", true, "18", "393.33"},
		{"zero rate", "250.50", true, "0", "250.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := service.ChequeAmount(dec(tc.total), tc.withHold, dec(tc.rate))
			assert.True(t, got.Equal(dec(tc.expected)), "got %s", got)
		})
	}
}

func TestInvoiceService_Create(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createInvoiceService(db, clk)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Indus Traders")
	testutil.CreateTestTax(t, db, domain.MaterialTypeService, 16, testutil.ReferenceTime.Add(-24*time.Hour), nil)

	t.Run("paid with withholding uses current rate", func(t *testing.T) {
		deposit := "2025-03-09"
		invoice, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
			CustomerID:  customer.ID,
			Status:      domain.InvoiceStatusPaid,
			TotalAmount: dec("1000"),
			InvoiceType: domain.MaterialTypeService,
			WithHoldTax: true,
			DepositDate: &deposit,
		})
		require.NoError(t, err)
		require.True(t, invoice.ChequeAmount.Valid)
		assert.True(t, invoice.ChequeAmount.Decimal.Equal(dec("1160")))
		assert.True(t, invoice.TaxDeducted.IsZero())
		require.NotNil(t, invoice.DepositDate)
		assert.Equal(t, "2025-03-09", *invoice.DepositDate)
	})

	t.Run("paid without a tax row falls back to total", func(t *testing.T) {
		invoice, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
			CustomerID:  customer.ID,
			Status:      domain.InvoiceStatusPaid,
			TotalAmount: dec("500"),
			InvoiceType: domain.MaterialTypeMaterial,
			WithHoldTax: true,
		})
		require.NoError(t, err)
		assert.True(t, invoice.ChequeAmount.Decimal.Equal(dec("500")))
	})

	t.Run("unpaid keeps provided cheque amount", func(t *testing.T) {
		provided := dec("42.10")
		invoice, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
			CustomerID:   customer.ID,
			TotalAmount:  dec("500"),
			InvoiceType:  domain.MaterialTypeService,
			WithHoldTax:  true,
			ChequeAmount: &provided,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusUnpaid, invoice.Status)
		assert.True(t, invoice.ChequeAmount.Decimal.Equal(provided))
	})

	t.Run("unknown references are rejected", func(t *testing.T) {
		missing := uuid.New()
		tests := []struct {
			name     string
			req      domain.CreateInvoiceRequest
			expected error
		}{
			{"customer", domain.CreateInvoiceRequest{CustomerID: missing, InvoiceType: domain.MaterialTypeService}, service.ErrReferencedCustomer},
			{"quotation", domain.CreateInvoiceRequest{CustomerID: customer.ID, QuotationID: &missing, InvoiceType: domain.MaterialTypeService}, service.ErrReferencedQuotation},
			{"purchase order", domain.CreateInvoiceRequest{CustomerID: customer.ID, PurchaseOrderID: &missing, InvoiceType: domain.MaterialTypeService}, service.ErrReferencedPO},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(ctx, &tc.req)
				assert.ErrorIs(t, err, tc.expected)
				assert.True(t, errors.Is(err, service.ErrInvalidInput))
			})
		}
	})

	t.Run("malformed deposit date", func(t *testing.T) {
		bad := "09/03/2025"
		_, err := svc.Create(ctx, &domain.CreateInvoiceRequest{
			CustomerID:  customer.ID,
			TotalAmount: dec("10"),
			InvoiceType: domain.MaterialTypeService,
			DepositDate: &bad,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestInvoiceService_UpdateToPaid(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createInvoiceService(db, clk)
	ctx := context.Background()

	customer := testutil.CreateTestCustomer(t, db, "Karachi Steel")
	testutil.CreateTestTax(t, db, domain.MaterialTypeMaterial, 18, testutil.ReferenceTime.Add(-24*time.Hour), nil)

	req := domain.CreateInvoiceRequest{
		CustomerID:  customer.ID,
		TotalAmount: dec("200"),
		InvoiceType: domain.MaterialTypeMaterial,
		WithHoldTax: true,
	}
	created, err := svc.Create(ctx, &req)
	require.NoError(t, err)
	assert.False(t, created.ChequeAmount.Valid)

	req.Status = domain.InvoiceStatusPaid
	updated, err := svc.Update(ctx, created.ID, &req)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
	assert.True(t, updated.ChequeAmount.Decimal.Equal(dec("236")))
	require.NotNil(t, updated.UpdatedBy)

	_, err = svc.Update(ctx, uuid.New(), &req)
	assert.ErrorIs(t, err, service.ErrInvoiceNotFound)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), service.ErrInvoiceNotFound)
}
