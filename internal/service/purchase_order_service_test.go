package service_test

import (
	"encoding/json"
	"testing"

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

func createPurchaseOrderService(db *gorm.DB) *service.PurchaseOrderService {
	quotationRepo := repository.NewQuotationRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	return service.NewPurchaseOrderService(
		poRepo,
		quotationRepo,
		repository.NewChallanRepository(db),
		repository.NewCustomerRepository(db),
		service.NewQuotationStatusCoordinator(quotationRepo, poRepo, zap.NewNop()),
		repository.NewTransactor(db),
		zap.NewNop(),
	)
}

func quotationStatus(t *testing.T, db *gorm.DB, id uuid.UUID) domain.QuotationStatus {
	var q domain.Quotation
	require.NoError(t, db.First(&q, "id = ?", id).Error)
	return q.Status
}

func TestPurchaseOrderService_QuotationStatus(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createPurchaseOrderService(db)
	ctx := actorContext()

	customer := testutil.CreateTestCustomer(t, db, "Karachi Steel")
	beam := testutil.CreateTestMaterial(t, db, "Beam", domain.MaterialTypeMaterial, 900)
	q1 := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(beam, 10))
	q2 := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(beam, 20))

	po, err := svc.Create(ctx, &domain.CreatePurchaseOrderRequest{
		PurchaseOrderNo: " PO-1 ",
		Customer:        customer.CustomerName,
		QuotationID:     &q1.ID,
		MaterialCosts:   domain.MaterialCosts{decimal.NewNullDecimal(decimal.NewFromInt(850))},
	})
	require.NoError(t, err)
	assert.Equal(t, "PO-1", po.PurchaseOrderNo)
	assert.Equal(t, domain.PurchaseOrderStatusPending, po.Status)
	require.NotNil(t, po.CustomerID)
	assert.Equal(t, customer.ID, *po.CustomerID)
	require.Len(t, po.Materials, 1)
	assert.True(t, po.Materials[0].ActualCost.Decimal.Equal(decimal.NewFromInt(850)))
	assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, q1.ID))

	t.Run("update without relink leaves quotations alone", func(t *testing.T) {
		revised := "revised"
		_, err := svc.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
			PurchaseOrderNo: "PO-1",
			Customer:        customer.CustomerName,
			Description:     &revised,
			QuotationID:     domain.Some(q1.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, q1.ID))
		assert.Equal(t, domain.QuotationStatusPending, quotationStatus(t, db, q2.ID))
	})

	t.Run("relink moves po_received to the new quotation", func(t *testing.T) {
		updated, err := svc.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
			PurchaseOrderNo: "PO-1",
			Customer:        customer.CustomerName,
			QuotationID:     domain.Some(q2.ID),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.UpdatedBy)
		assert.Equal(t, domain.QuotationStatusPending, quotationStatus(t, db, q1.ID))
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, q2.ID))
	})

	t.Run("relink to a missing quotation rolls back", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.Update(ctx, po.ID, &domain.UpdatePurchaseOrderRequest{
			PurchaseOrderNo: "PO-1",
			Customer:        customer.CustomerName,
			QuotationID:     domain.Some(missing),
		})
		assert.ErrorIs(t, err, service.ErrReferencedQuotation)
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, q2.ID))

		got, err := svc.GetByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, q2.ID, *got.QuotationID)
	})

	t.Run("a shared quotation stays po_received while referenced", func(t *testing.T) {
		other, err := svc.Create(ctx, &domain.CreatePurchaseOrderRequest{
			PurchaseOrderNo: "PO-2",
			Customer:        customer.CustomerName,
			QuotationID:     &q2.ID,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, other.ID))
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, q2.ID))
	})

	t.Run("delete releases the quotation and removes challans", func(t *testing.T) {
		challan := &domain.Challan{
			ChallanNo:       "DC-2025-001",
			PurchaseOrderID: po.ID,
			CustomerID:      customer.ID,
			CustomerName:    customer.CustomerName,
			Materials:       domain.ChallanMaterials{{MaterialID: beam.ID, MaterialName: beam.Name, Quantity: decimal.NewFromInt(5)}},
			TotalQuantity:   decimal.NewFromInt(5),
			ChallanDate:     testutil.ReferenceTime,
			CreatedBy:       uuid.New(),
		}
		require.NoError(t, db.Create(challan).Error)

		require.NoError(t, svc.Delete(ctx, po.ID))
		assert.Equal(t, domain.QuotationStatusPending, quotationStatus(t, db, q2.ID))

		var count int64
		require.NoError(t, db.Model(&domain.Challan{}).Where("purchase_order_id = ?", po.ID).Count(&count).Error)
		assert.Zero(t, count)

		_, err := svc.GetByID(ctx, po.ID)
		assert.ErrorIs(t, err, service.ErrPurchaseOrderNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, po.ID), service.ErrPurchaseOrderNotFound)
	})
}

func TestPurchaseOrderService_CreateRejections(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createPurchaseOrderService(db)
	ctx := actorContext()

	customer := testutil.CreateTestCustomer(t, db, "Lahore Builders")
	existing := testutil.CreateTestPurchaseOrder(t, db, "PO-9", customer, nil)
	missing := uuid.New()

	tests := []struct {
		name     string
		req      domain.CreatePurchaseOrderRequest
		expected error
	}{
		{"duplicate number", domain.CreatePurchaseOrderRequest{PurchaseOrderNo: "PO-9", Customer: "x"}, service.ErrDuplicatePONumber},
		{"unknown quotation", domain.CreatePurchaseOrderRequest{PurchaseOrderNo: "PO-10", Customer: "x", QuotationID: &missing}, service.ErrReferencedQuotation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tc.req)
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	t.Run("update to another order's number", func(t *testing.T) {
		second := testutil.CreateTestPurchaseOrder(t, db, "PO-11", customer, nil)
		_, err := svc.Update(ctx, second.ID, &domain.UpdatePurchaseOrderRequest{PurchaseOrderNo: existing.PurchaseOrderNo, Customer: "x"})
		assert.ErrorIs(t, err, service.ErrDuplicatePONumber)

		_, err = svc.Update(ctx, uuid.New(), &domain.UpdatePurchaseOrderRequest{PurchaseOrderNo: "PO-12", Customer: "x"})
		assert.ErrorIs(t, err, service.ErrPurchaseOrderNotFound)
	})

	var count int64
	require.NoError(t, db.Model(&domain.PurchaseOrder{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPurchaseOrderService_UpdateKeepsOmittedFields(t *testing.T) {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	svc := createPurchaseOrderService(db)
	ctx := actorContext()

	customer := testutil.CreateTestCustomer(t, db, "Gujranwala Fans")
	motor := testutil.CreateTestMaterial(t, db, "Motor", domain.MaterialTypeMaterial, 700)
	quotation := testutil.CreateTestQuotation(t, db, customer, testutil.QuotationLine(motor, 8))

	po, err := svc.Create(ctx, &domain.CreatePurchaseOrderRequest{
		PurchaseOrderNo: "PO-G1",
		Customer:        customer.CustomerName,
		Description:     "first batch",
		QuotationID:     &quotation.ID,
		MaterialCosts:   domain.MaterialCosts{decimal.NewNullDecimal(decimal.NewFromInt(650))},
	})
	require.NoError(t, err)
	require.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, quotation.ID))

	update := func(t *testing.T, body string) *domain.PurchaseOrderDTO {
		t.Helper()
		var req domain.UpdatePurchaseOrderRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req))
		updated, err := svc.Update(ctx, po.ID, &req)
		require.NoError(t, err)
		return updated
	}

	t.Run("description only", func(t *testing.T) {
		updated := update(t, `{"description":"second batch"}`)
		assert.Equal(t, "second batch", updated.Description)
		assert.Equal(t, "PO-G1", updated.PurchaseOrderNo)
		assert.Equal(t, customer.CustomerName, updated.Customer)
		require.NotNil(t, updated.QuotationID)
		assert.Equal(t, quotation.ID, *updated.QuotationID)
		require.Len(t, updated.MaterialCosts, 1)
		assert.True(t, updated.MaterialCosts[0].Decimal.Equal(decimal.NewFromInt(650)))
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, quotation.ID))
	})

	t.Run("empty material costs clear them", func(t *testing.T) {
		updated := update(t, `{"material_costs":[]}`)
		assert.Empty(t, updated.MaterialCosts)
		require.NotNil(t, updated.QuotationID)
		assert.Equal(t, domain.QuotationStatusPOReceived, quotationStatus(t, db, quotation.ID))
	})

	t.Run("null quotation releases it", func(t *testing.T) {
		updated := update(t, `{"quotation_id":null}`)
		assert.Nil(t, updated.QuotationID)
		assert.Equal(t, "second batch", updated.Description)
		assert.Equal(t, domain.QuotationStatusPending, quotationStatus(t, db, quotation.ID))

		var stored domain.PurchaseOrder
		require.NoError(t, db.First(&stored, "id = ?", po.ID).Error)
		assert.Nil(t, stored.QuotationID)
		require.NotNil(t, stored.CustomerID, "customer link is kept")
		assert.Equal(t, customer.ID, *stored.CustomerID)
	})
}
