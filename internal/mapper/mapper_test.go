package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
)

func TestToCustomerDTO(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	customer := &domain.Customer{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerName:    "Acme Traders",
		CompanyName:     "Acme Pvt Ltd",
		TelephoneNumber: "021-1234567",
		NTN:             "1234567-8",
	}

	dto := mapper.ToCustomerDTO(customer)

	assert.Equal(t, customer.ID, dto.ID)
	assert.Equal(t, "Acme Traders", dto.CustomerName)
	assert.Equal(t, "Acme Pvt Ltd", dto.CompanyName)
	assert.Equal(t, "1234567-8", dto.NTN)
	assert.Equal(t, "2025-01-02T03:04:05Z", dto.CreatedAt)
}

func TestToPurchaseOrderDTO_AttachesActualCosts(t *testing.T) {
	quotation := &domain.Quotation{
		Materials: domain.QuotationMaterials{
			{MaterialID: uuid.New(), Name: "Cement", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)},
			{MaterialID: uuid.New(), Name: "Steel", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(7)},
		},
	}
	po := &domain.PurchaseOrder{
		PurchaseOrderNo: "PO-1",
		MaterialCosts: domain.MaterialCosts{
			decimal.NewNullDecimal(decimal.RequireFromString("4.50")),
		},
	}

	dto := mapper.ToPurchaseOrderDTO(po, quotation)

	require.Len(t, dto.Materials, 2)
	assert.True(t, dto.Materials[0].ActualCost.Valid)
	assert.Equal(t, "4.5", dto.Materials[0].ActualCost.Decimal.String())
	assert.False(t, dto.Materials[1].ActualCost.Valid)
	assert.Equal(t, "Steel", dto.Materials[1].Name)
}

func TestToPurchaseOrderDTO_WithoutQuotation(t *testing.T) {
	dto := mapper.ToPurchaseOrderDTO(&domain.PurchaseOrder{PurchaseOrderNo: "PO-2"}, nil)
	assert.Nil(t, dto.Materials)
	assert.Equal(t, "PO-2", dto.PurchaseOrderNo)
}

func TestToChallanDTO(t *testing.T) {
	challan := &domain.Challan{
		ChallanNo:   "DC-2025-001",
		ChallanDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	dto := mapper.ToChallanDTO(challan)

	assert.Equal(t, "2025-06-30", dto.ChallanDate)
	assert.NotNil(t, dto.Materials)
}

func TestToTaxDTO(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("open row is current", func(t *testing.T) {
		dto := mapper.ToTaxDTO(&domain.Tax{ServiceType: domain.MaterialTypeMaterial, EffectiveFrom: from})
		assert.True(t, dto.IsCurrent)
		assert.Nil(t, dto.EffectiveTo)
		assert.Equal(t, "2025-01-01T00:00:00Z", dto.EffectiveFrom)
	})

	t.Run("closed row carries its end", func(t *testing.T) {
		dto := mapper.ToTaxDTO(&domain.Tax{ServiceType: domain.MaterialTypeService, EffectiveFrom: from, EffectiveTo: &to})
		assert.False(t, dto.IsCurrent)
		require.NotNil(t, dto.EffectiveTo)
		assert.Equal(t, "2025-07-01T00:00:00Z", *dto.EffectiveTo)
	})
}

func TestToInvoiceDTO_DepositDate(t *testing.T) {
	deposit := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	dto := mapper.ToInvoiceDTO(&domain.Invoice{DepositDate: &deposit})
	require.NotNil(t, dto.DepositDate)
	assert.Equal(t, "2025-02-14", *dto.DepositDate)

	dto = mapper.ToInvoiceDTO(&domain.Invoice{})
	assert.Nil(t, dto.DepositDate)
}
