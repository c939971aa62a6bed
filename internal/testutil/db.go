package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/database"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ReferenceTime is the instant test clocks start at
var ReferenceTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// SetupTestDB opens a private in-memory SQLite database migrated with the
// application models. A single connection keeps every query on the same
// in-memory database, so tests must not query outside an open transaction.
func SetupTestDB(t *testing.T, clk clock.Clock) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(clk))
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateTestCustomer creates a test customer and returns it
func CreateTestCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		CustomerName:    name,
		CompanyName:     name + " Pvt Ltd",
		TelephoneNumber: "021-0000000",
		NTN:             "0000000-1",
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestMaterial creates a catalogue material
func CreateTestMaterial(t *testing.T, db *gorm.DB, name string, materialType domain.MaterialType, unitPrice int64) *domain.Material {
	t.Helper()
	material := &domain.Material{
		Name:         name,
		MaterialType: materialType,
		Unit:         "pcs",
		UnitPrice:    decimal.NewFromInt(unitPrice),
	}
	require.NoError(t, db.Create(material).Error)
	return material
}

// QuotationLine builds a quotation line for material
func QuotationLine(material *domain.Material, quantity int64) domain.QuotationMaterial {
	return domain.QuotationMaterial{
		MaterialID:   material.ID,
		Name:         material.Name,
		Quantity:     decimal.NewFromInt(quantity),
		UnitPrice:    material.UnitPrice,
		Unit:         material.Unit,
		MaterialType: material.MaterialType,
	}
}

// CreateTestQuotation creates a pending quotation for customer with lines
func CreateTestQuotation(t *testing.T, db *gorm.DB, customer *domain.Customer, lines ...domain.QuotationMaterial) *domain.Quotation {
	t.Helper()
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity.Mul(l.UnitPrice))
	}
	quotation := &domain.Quotation{
		Title:        "Quotation for " + customer.CustomerName,
		CustomerID:   customer.ID,
		CustomerName: customer.CustomerName,
		Materials:    lines,
		TotalPrice:   total,
		Status:       domain.QuotationStatusPending,
		CreatedBy:    uuid.New(),
	}
	require.NoError(t, db.Create(quotation).Error)
	return quotation
}

// CreateTestPurchaseOrder creates a pending purchase order, optionally linked to quotation
func CreateTestPurchaseOrder(t *testing.T, db *gorm.DB, number string, customer *domain.Customer, quotation *domain.Quotation) *domain.PurchaseOrder {
	t.Helper()
	po := &domain.PurchaseOrder{
		PurchaseOrderNo: number,
		Customer:        customer.CustomerName,
		CustomerID:      &customer.ID,
		Status:          domain.PurchaseOrderStatusPending,
		CreatedBy:       uuid.New(),
	}
	if quotation != nil {
		po.QuotationID = &quotation.ID
	}
	require.NoError(t, db.Create(po).Error)
	return po
}

// CreateTestTax inserts a tax window
func CreateTestTax(t *testing.T, db *gorm.DB, serviceType domain.MaterialType, percent int64, from time.Time, to *time.Time) *domain.Tax {
	t.Helper()
	tax := &domain.Tax{
		ServiceType:   serviceType,
		TaxPercent:    decimal.NewFromInt(percent),
		EffectiveFrom: from,
		EffectiveTo:   to,
	}
	require.NoError(t, db.Create(tax).Error)
	return tax
}
