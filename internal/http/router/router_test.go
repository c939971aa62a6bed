package router_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/app"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/config"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/service"
	"github.com/tradeflow/backoffice-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret"

type testServer struct {
	t       *testing.T
	handler http.Handler
	db      *gorm.DB
	clk     *clock.Stub
}

func newTestServer(t *testing.T) *testServer {
	clk := clock.NewStub(testutil.ReferenceTime)
	db := testutil.SetupTestDB(t, clk)
	cfg := &config.Config{
		App:    config.AppConfig{Name: "test", Environment: "test"},
		Auth:   config.AuthConfig{JWTSecret: testSecret},
		Server: config.ServerConfig{RequestTimeout: 10},
		Security: config.SecurityConfig{
			ContentTypeNosniff: true,
			FrameDeny:          true,
		},
		Tax: config.TaxConfig{DefaultPercent: 18},
	}
	h, err := app.New(cfg, db, clk, zap.NewNop())
	require.NoError(t, err)
	return &testServer{t: t, handler: h, db: db, clk: clk}
}

func (s *testServer) token(role string) string {
	claims := auth.Claims{
		Name: "Test " + role,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(testutil.ReferenceTime.Add(24 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(s.t, err)
	return signed
}

func (s *testServer) do(method, path, role string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5000"
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(target), w.Body.String())
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var ready map[string]interface{}
	decode(t, w, &ready)
	assert.Equal(t, "healthy", ready["status"])

	w = s.do(http.MethodGet, "/api/v1/taxes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/taxes", auth.RoleUser, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChallanEndpoints(t *testing.T) {
	s := newTestServer(t)

	customer := testutil.CreateTestCustomer(t, s.db, "Faisalabad Mills")
	cotton := testutil.CreateTestMaterial(t, s.db, "Cotton bale", domain.MaterialTypeMaterial, 80)
	dyeing := testutil.CreateTestMaterial(t, s.db, "Dyeing", domain.MaterialTypeService, 300)
	quotation := testutil.CreateTestQuotation(t, s.db, customer,
		testutil.QuotationLine(cotton, 10),
		testutil.QuotationLine(dyeing, 1),
	)
	po := testutil.CreateTestPurchaseOrder(t, s.db, "PO-F1", customer, quotation)

	line := func(id uuid.UUID, qty int64) map[string]interface{} {
		return map[string]interface{}{"material_id": id, "quantity": qty}
	}

	t.Run("violations are listed together", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/challans", auth.RoleUser, map[string]interface{}{
			"purchase_order_id": po.ID,
			"materials":         []interface{}{line(cotton.ID, 11), line(dyeing.ID, 1)},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body domain.LineValidationError
		decode(t, w, &body)
		assert.Equal(t, "Validation errors", body.Message)
		assert.Equal(t, []string{
			"Cannot deliver 11 units of Cotton bale. Only 10 units remaining.",
			"Material Dyeing is a service and cannot be delivered",
		}, body.Errors)
	})

	t.Run("struct validation", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/challans", auth.RoleUser, map[string]interface{}{
			"purchase_order_id": po.ID,
			"materials":         []interface{}{},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body domain.APIError
		decode(t, w, &body)
		assert.Equal(t, domain.ErrorTypeValidation, body.Type)
		assert.Contains(t, body.Errors, "materials")
	})

	var created domain.ChallanDTO
	t.Run("create", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/challans", auth.RoleUser, map[string]interface{}{
			"purchase_order_id": po.ID,
			"materials":         []interface{}{line(cotton.ID, 10)},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		decode(t, w, &created)
		assert.Equal(t, "DC-2025-001", created.ChallanNo)
	})

	t.Run("available materials and history", func(t *testing.T) {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/v1/challans/purchase-order/%s/materials", po.ID), auth.RoleUser, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var available domain.AvailableMaterialsDTO
		decode(t, w, &available)
		require.Len(t, available.Materials, 1)
		assert.True(t, available.Materials[0].RemainingQuantity.IsZero())
		assert.False(t, available.Materials[0].CanDeliver)

		w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/challans/purchase-order/%s/history", po.ID), auth.RoleUser, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var history domain.ChallanHistoryDTO
		decode(t, w, &history)
		assert.Equal(t, 1, history.Summary.TotalChallans)

		w = s.do(http.MethodGet, "/api/v1/purchase-orders/"+po.ID.String(), auth.RoleUser, nil)
		var got domain.PurchaseOrderDTO
		decode(t, w, &got)
		assert.Equal(t, domain.PurchaseOrderStatusDelivered, got.Status)
	})

	t.Run("delete needs admin", func(t *testing.T) {
		path := "/api/v1/challans/" + created.ID.String()
		assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, auth.RoleUser, nil).Code)
		assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, auth.RoleAdmin, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, auth.RoleUser, nil).Code)
	})

	t.Run("bad ids", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/challans/not-a-uuid", auth.RoleUser, nil).Code)

		w := s.do(http.MethodGet, "/api/v1/challans/purchase-order/"+uuid.NewString()+"/materials", auth.RoleUser, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		var body domain.APIError
		decode(t, w, &body)
		assert.Equal(t, "purchase order not found", body.Detail)
	})
}

func TestTaxEndpoints(t *testing.T) {
	s := newTestServer(t)
	tax := testutil.CreateTestTax(t, s.db, domain.MaterialTypeMaterial, 17, testutil.ReferenceTime.Add(-48*time.Hour), nil)
	path := "/api/v1/taxes/" + tax.ID.String()

	update := func(role string, percent interface{}) *httptest.ResponseRecorder {
		return s.do(http.MethodPut, path, role, map[string]interface{}{"tax_percent": percent})
	}

	assert.Equal(t, http.StatusForbidden, update(auth.RoleUser, 18).Code)

	w := update(auth.RoleAdmin, 99)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem domain.APIError
	decode(t, w, &problem)
	assert.Equal(t, "Tax percent must be between 1 and 98", problem.Detail)

	assert.Equal(t, http.StatusBadRequest, update(auth.RoleAdmin, 17).Code, "unchanged rate")

	w = update(auth.RoleAdmin, 18)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var current domain.TaxDTO
	decode(t, w, &current)
	assert.True(t, current.TaxPercent.Equal(decimal.NewFromInt(18)))
	assert.True(t, current.IsCurrent)

	w = s.do(http.MethodGet, "/api/v1/taxes/service-type/material/for-date?date=2025-03-09", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var historical domain.TaxDTO
	decode(t, w, &historical)
	assert.True(t, historical.TaxPercent.Equal(decimal.NewFromInt(17)))

	w = s.do(http.MethodGet, "/api/v1/taxes/service-type/material/history", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []domain.TaxDTO
	decode(t, w, &history)
	assert.Len(t, history, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/taxes/service-type/material/for-date", auth.RoleUser, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/taxes/service-type/material/for-date?date=09-03-2025", auth.RoleUser, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/taxes/service-type/goods", auth.RoleUser, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/taxes/service-type/service", auth.RoleUser, nil).Code)
}

func TestQuotationAndPurchaseOrderEndpoints(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateTestCustomer(t, s.db, "Sukkur Cement")
	bag := testutil.CreateTestMaterial(t, s.db, "Cement bag", domain.MaterialTypeMaterial, 12)

	w := s.do(http.MethodPost, "/api/v1/quotations", auth.RoleUser, map[string]interface{}{
		"customer_id": customer.ID,
		"materials":   []interface{}{map[string]interface{}{"material_id": bag.ID, "quantity": 100, "unit_price": 11}},
		"total_price": 1100,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem domain.APIError
	decode(t, w, &problem)
	assert.Contains(t, problem.Errors, "title")

	w = s.do(http.MethodPost, "/api/v1/quotations", auth.RoleUser, map[string]interface{}{
		"title":       "Cement for plant",
		"customer_id": customer.ID,
		"materials":   []interface{}{map[string]interface{}{"material_id": bag.ID, "quantity": 100, "unit_price": 11}},
		"total_price": 1100,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var quotation domain.QuotationDTO
	decode(t, w, &quotation)
	assert.Empty(t, quotation.Warnings)

	w = s.do(http.MethodPost, "/api/v1/purchase-orders", auth.RoleUser, map[string]interface{}{
		"purchase_order_no": "PO-S1",
		"customer":          customer.CustomerName,
		"quotation_id":      quotation.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var po domain.PurchaseOrderDTO
	decode(t, w, &po)

	w = s.do(http.MethodPut, "/api/v1/purchase-orders/"+po.ID.String(), auth.RoleUser, map[string]interface{}{
		"description": "delivery to plant gate",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &po)
	assert.Equal(t, "delivery to plant gate", po.Description)
	assert.Equal(t, "PO-S1", po.PurchaseOrderNo)
	require.NotNil(t, po.QuotationID, "an omitted quotation_id keeps the link")
	assert.Equal(t, quotation.ID, *po.QuotationID)

	w = s.do(http.MethodGet, "/api/v1/quotations/"+quotation.ID.String(), auth.RoleUser, nil)
	decode(t, w, &quotation)
	assert.Equal(t, domain.QuotationStatusPOReceived, quotation.Status)

	w = s.do(http.MethodPost, "/api/v1/purchase-orders", auth.RoleUser, map[string]interface{}{
		"purchase_order_no": "PO-S1",
		"customer":          customer.CustomerName,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	decode(t, w, &problem)
	assert.Equal(t, "Purchase order number already exists", problem.Detail)

	w = s.do(http.MethodDelete, "/api/v1/quotations/"+quotation.ID.String(), auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/purchase-orders?status=pending&startDate=2025-03-01&endDate=2025-03-31", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data  []domain.PurchaseOrderDTO `json:"data"`
		Total int64                     `json:"total"`
	}
	decode(t, w, &page)
	assert.Equal(t, int64(1), page.Total)

	w = s.do(http.MethodGet, "/api/v1/quotations/customer/"+customer.ID.String(), auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byCustomer []domain.QuotationDTO
	decode(t, w, &byCustomer)
	assert.Len(t, byCustomer, 1)

	w = s.do(http.MethodGet, "/api/v1/customers/"+customer.ID.String()+"/materials", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prices []domain.CustomerMaterialPriceDTO
	decode(t, w, &prices)
	require.Len(t, prices, 1)
	assert.True(t, prices[0].LastPrice.Equal(decimal.NewFromInt(11)))
}

func TestDocumentAndExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateTestCustomer(t, s.db, "Mardan Sugar")
	testutil.CreateTestTax(t, s.db, domain.MaterialTypeService, 16, testutil.ReferenceTime.Add(-30*24*time.Hour), nil)

	w := s.do(http.MethodPost, "/api/v1/invoices", auth.RoleUser, map[string]interface{}{
		"customer_id":   customer.ID,
		"invoice_type":  "service",
		"total_amount":  500,
		"status":        "paid",
		"with_hold_tax": true,
		"deposit_date":  "2025-03-10",
		"bank":          "MCB",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invoice domain.InvoiceDTO
	decode(t, w, &invoice)
	assert.True(t, invoice.ChequeAmount.Decimal.Equal(decimal.NewFromInt(580)))

	w = s.do(http.MethodPost, "/api/v1/invoices", auth.RoleUser, map[string]interface{}{
		"customer_id":  customer.ID,
		"invoice_type": "goods",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/documents/invoices/"+invoice.ID.String()+"/html", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Mardan Sugar")

	w = s.do(http.MethodGet, "/api/v1/documents/invoices/"+invoice.ID.String(), auth.RoleUser, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(http.MethodGet, "/api/v1/documents/quotations/"+uuid.NewString()+"/html", auth.RoleUser, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/exports/paid-invoices.csv?startDate=2025-03-01", auth.RoleUser, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem domain.APIError
	decode(t, w, &problem)
	assert.Equal(t, "Start date and end date are required", problem.Detail)

	w = s.do(http.MethodGet, "/api/v1/exports/paid-invoices.csv?startDate=2025-03-01&endDate=2025-03-31", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="paid-invoices-2025-03-01-to-2025-03-31.csv"`, w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, service.PaidInvoiceColumns, records[0])
	assert.Equal(t, "16%", records[1][10])
	assert.Equal(t, "580.00", records[1][12])
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	customer := testutil.CreateTestCustomer(t, s.db, "Larkana Rice")
	sack := testutil.CreateTestMaterial(t, s.db, "Rice sack", domain.MaterialTypeMaterial, 40)
	quotation := testutil.CreateTestQuotation(t, s.db, customer, testutil.QuotationLine(sack, 25))
	testutil.CreateTestPurchaseOrder(t, s.db, "PO-L1", customer, quotation)

	w := s.do(http.MethodGet, "/api/v1/dashboard/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary?startDate=2025-03-01&endDate=2025-03-31", auth.RoleUser, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary domain.DashboardSummaryDTO
	decode(t, w, &summary)
	assert.Equal(t, int64(1), summary.PurchaseOrders.Pending)
	assert.Zero(t, summary.Invoices.Total)
	assert.True(t, summary.Amounts.PurchaseOrders.Pending.Equal(decimal.NewFromInt(1000)))

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary?startDate=March", auth.RoleUser, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/dashboard/summary?startDate=2025-03-31&endDate=2025-03-01", auth.RoleUser, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
