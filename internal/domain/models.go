package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// MaterialType distinguishes deliverable goods from services.
type MaterialType string

const (
	MaterialTypeMaterial MaterialType = "material"
	MaterialTypeService  MaterialType = "service"
)

// IsValid checks if the material type is a known value
func (t MaterialType) IsValid() bool {
	return t == MaterialTypeMaterial || t == MaterialTypeService
}

// QuotationStatus represents the quotation lifecycle
type QuotationStatus string

const (
	QuotationStatusPending    QuotationStatus = "pending"
	QuotationStatusPOReceived QuotationStatus = "po_received"
)

// PurchaseOrderStatus represents the delivery state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "pending"
	PurchaseOrderStatusDelivered PurchaseOrderStatus = "delivered"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// Customer is a buying party
type Customer struct {
	BaseModel
	CustomerName    string `gorm:"type:varchar(255);not null;column:customer_name"`
	CompanyName     string `gorm:"type:varchar(255)"`
	Address         string `gorm:"type:text"`
	CompanyAddress  string `gorm:"type:text"`
	TelephoneNumber string `gorm:"type:varchar(50)"`
	Fax             string `gorm:"type:varchar(50)"`
	NTN             string `gorm:"type:varchar(50);column:ntn"`
}

// Material is a catalogue entry that can be quoted
type Material struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description  string          `gorm:"type:text"`
	MaterialType MaterialType    `gorm:"type:varchar(20);not null;default:'material'"`
	Unit         string          `gorm:"type:varchar(50)"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

// QuotationMaterial is one priced line of a quotation
type QuotationMaterial struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Unit         string          `json:"unit,omitempty"`
	MaterialType MaterialType    `json:"material_type"`
}

// QuotationMaterials is stored as a JSON document
type QuotationMaterials []QuotationMaterial

func (m QuotationMaterials) Value() (driver.Value, error) { return jsonValue(m) }
func (m *QuotationMaterials) Scan(src interface{}) error  { return jsonScan(src, m) }

// Quotation is a priced proposal to a customer
type Quotation struct {
	BaseModel
	Title        string             `gorm:"type:varchar(255);not null"`
	CustomerID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerName string             `gorm:"type:varchar(255);not null"`
	Materials    QuotationMaterials `gorm:"type:jsonb;not null"`
	TotalPrice   decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0"`
	Status       QuotationStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedBy    uuid.UUID          `gorm:"type:uuid;not null"`
	UpdatedBy    *uuid.UUID         `gorm:"type:uuid"`
}

// CustomerMaterialPrice remembers the last price quoted to a customer for a material
type CustomerMaterialPrice struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customer_material"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customer_material"`
	LastPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

func (p *CustomerMaterialPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MaterialCosts holds optional per-line actual costs, indexed like the quotation materials
type MaterialCosts []decimal.NullDecimal

func (m MaterialCosts) Value() (driver.Value, error) { return jsonValue(m) }
func (m *MaterialCosts) Scan(src interface{}) error  { return jsonScan(src, m) }

// PurchaseOrder is a customer's commitment against a quotation
type PurchaseOrder struct {
	BaseModel
	PurchaseOrderNo string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Customer        string              `gorm:"type:varchar(255);not null"`
	CustomerID      *uuid.UUID          `gorm:"type:uuid;index"`
	Description     string              `gorm:"type:text"`
	Status          PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	QuotationID     *uuid.UUID          `gorm:"type:uuid;index"`
	MaterialCosts   MaterialCosts       `gorm:"type:jsonb"`
	CreatedBy       uuid.UUID           `gorm:"type:uuid;not null"`
	UpdatedBy       *uuid.UUID          `gorm:"type:uuid"`
}

// ChallanMaterial is one delivered line of a challan
type ChallanMaterial struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
}

// ChallanMaterials is stored as a JSON document
type ChallanMaterials []ChallanMaterial

func (m ChallanMaterials) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ChallanMaterials) Scan(src interface{}) error  { return jsonScan(src, m) }

// Challan is a delivery note issued against a purchase order
type Challan struct {
	BaseModel
	ChallanNo       string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID        `gorm:"type:uuid;not null;index"`
	QuotationID     *uuid.UUID       `gorm:"type:uuid"`
	CustomerID      uuid.UUID        `gorm:"type:uuid;not null"`
	CustomerName    string           `gorm:"type:varchar(255);not null"`
	Materials       ChallanMaterials `gorm:"type:jsonb;not null"`
	TotalQuantity   decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	ChallanDate     time.Time        `gorm:"type:date;not null;index"`
	Notes           string           `gorm:"type:text"`
	CreatedBy       uuid.UUID        `gorm:"type:uuid;not null"`
}

// NumberSequence tracks the last issued sequence per document prefix and year
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Prefix       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_number_sequence_prefix_year"`
	Year         int       `gorm:"not null;uniqueIndex:idx_number_sequence_prefix_year"`
	LastSequence int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (n *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Tax is one window of a service type's tax history.
// EffectiveTo is nil for the currently applicable rate; closed rows are never modified.
type Tax struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ServiceType   MaterialType    `gorm:"type:varchar(20);not null;index:idx_tax_service_window"`
	TaxPercent    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	EffectiveFrom time.Time       `gorm:"not null;index:idx_tax_service_window"`
	EffectiveTo   *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (t *Tax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the row is the current rate for its service type
func (t *Tax) IsOpen() bool {
	return t.EffectiveTo == nil
}

// Covers reports whether the window [EffectiveFrom, EffectiveTo) contains at
func (t *Tax) Covers(at time.Time) bool {
	if at.Before(t.EffectiveFrom) {
		return false
	}
	return t.EffectiveTo == nil || at.Before(*t.EffectiveTo)
}

// Invoice is a bill raised against a customer
type Invoice struct {
	BaseModel
	CustomerID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	QuotationID     *uuid.UUID          `gorm:"type:uuid"`
	PurchaseOrderID *uuid.UUID          `gorm:"type:uuid"`
	Status          InvoiceStatus       `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(15,2);not null"`
	TaxDeducted     decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0"`
	InvoiceType     MaterialType        `gorm:"type:varchar(20);not null"`
	Description     string              `gorm:"type:text"`
	WithHoldTax     bool                `gorm:"not null;default:false"`
	ChequeAmount    decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	VoucherNo       string              `gorm:"type:varchar(100)"`
	Bank            string              `gorm:"type:varchar(100)"`
	DepositDate     *time.Time
	DWBank          string     `gorm:"type:varchar(100);column:dw_bank"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	UpdatedBy       *uuid.UUID `gorm:"type:uuid"`
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(errors.New("failed to decode JSON column"), err)
	}
	return nil
}
