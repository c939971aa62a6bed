package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Response DTOs. Timestamps are ISO 8601 strings, dates are YYYY-MM-DD.

type CustomerDTO struct {
	ID              uuid.UUID `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CompanyName     string    `json:"company_name,omitempty"`
	Address         string    `json:"address,omitempty"`
	CompanyAddress  string    `json:"company_address,omitempty"`
	TelephoneNumber string    `json:"telephone_number,omitempty"`
	Fax             string    `json:"fax,omitempty"`
	NTN             string    `json:"ntn,omitempty"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

type MaterialDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	MaterialType MaterialType    `json:"material_type"`
	Unit         string          `json:"unit,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// CustomerMaterialPriceDTO is the last price quoted to a customer for a material
type CustomerMaterialPriceDTO struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	MaterialType MaterialType    `json:"material_type"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LastPrice    decimal.Decimal `json:"last_price"`
	UpdatedAt    string          `json:"updated_at"`
}

type QuotationDTO struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	CustomerID   uuid.UUID          `json:"customer_id"`
	CustomerName string             `json:"customer_name"`
	Materials    QuotationMaterials `json:"materials"`
	TotalPrice   decimal.Decimal    `json:"total_price"`
	Status       QuotationStatus    `json:"status"`
	CreatedBy    uuid.UUID          `json:"created_by"`
	UpdatedBy    *uuid.UUID         `json:"updated_by,omitempty"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
	// Warnings lists secondary steps that failed while the quotation itself was saved
	Warnings []string `json:"warnings,omitempty"`
}

// PurchaseOrderMaterialDTO is a quotation line with the PO's actual cost override applied
type PurchaseOrderMaterialDTO struct {
	QuotationMaterial
	ActualCost decimal.NullDecimal `json:"actual_cost"`
}

type PurchaseOrderDTO struct {
	ID              uuid.UUID                  `json:"id"`
	PurchaseOrderNo string                     `json:"purchase_order_no"`
	Customer        string                     `json:"customer"`
	CustomerID      *uuid.UUID                 `json:"customer_id,omitempty"`
	Description     string                     `json:"description,omitempty"`
	Status          PurchaseOrderStatus        `json:"status"`
	QuotationID     *uuid.UUID                 `json:"quotation_id,omitempty"`
	MaterialCosts   MaterialCosts              `json:"material_costs,omitempty"`
	Materials       []PurchaseOrderMaterialDTO `json:"materials,omitempty"`
	CreatedBy       uuid.UUID                  `json:"created_by"`
	UpdatedBy       *uuid.UUID                 `json:"updated_by,omitempty"`
	CreatedAt       string                     `json:"created_at"`
	UpdatedAt       string                     `json:"updated_at"`
}

type ChallanDTO struct {
	ID              uuid.UUID        `json:"id"`
	ChallanNo       string           `json:"challan_no"`
	PurchaseOrderID uuid.UUID        `json:"purchase_order_id"`
	QuotationID     *uuid.UUID       `json:"quotation_id,omitempty"`
	CustomerID      uuid.UUID        `json:"customer_id"`
	CustomerName    string           `json:"customer_name"`
	Materials       ChallanMaterials `json:"materials"`
	TotalQuantity   decimal.Decimal  `json:"total_quantity"`
	ChallanDate     string           `json:"challan_date"`
	Notes           string           `json:"notes,omitempty"`
	CreatedBy       uuid.UUID        `json:"created_by"`
	CreatedAt       string           `json:"created_at"`
}

// AvailableMaterialDTO is a contracted line with its delivery balance
type AvailableMaterialDTO struct {
	QuotationMaterial
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	CanDeliver        bool            `json:"can_deliver"`
}

type PurchaseOrderRefDTO struct {
	ID              uuid.UUID `json:"id"`
	PurchaseOrderNo string    `json:"purchase_order_no"`
	Customer        string    `json:"customer"`
}

type QuotationRefDTO struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type AvailableMaterialsDTO struct {
	PurchaseOrder PurchaseOrderRefDTO    `json:"purchase_order"`
	Customer      *CustomerDTO           `json:"customer,omitempty"`
	Quotation     QuotationRefDTO        `json:"quotation"`
	Materials     []AvailableMaterialDTO `json:"materials"`
}

type MaterialDeliverySummaryDTO struct {
	MaterialName   string          `json:"material_name"`
	TotalDelivered decimal.Decimal `json:"total_delivered"`
}

type ChallanHistorySummaryDTO struct {
	TotalChallans          int                                      `json:"total_challans"`
	TotalQuantityDelivered decimal.Decimal                          `json:"total_quantity_delivered"`
	MaterialsSummary       map[uuid.UUID]MaterialDeliverySummaryDTO `json:"materials_summary"`
}

type ChallanHistoryDTO struct {
	Challans []ChallanDTO             `json:"challans"`
	Summary  ChallanHistorySummaryDTO `json:"summary"`
}

type TaxDTO struct {
	ID            uuid.UUID       `json:"id"`
	ServiceType   MaterialType    `json:"service_type"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   *string         `json:"effective_to"`
	IsCurrent     bool            `json:"is_current"`
}

type InvoiceDTO struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	QuotationID     *uuid.UUID          `json:"quotation_id,omitempty"`
	PurchaseOrderID *uuid.UUID          `json:"purchase_order_id,omitempty"`
	Status          InvoiceStatus       `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	TaxDeducted     decimal.Decimal     `json:"tax_deducted"`
	InvoiceType     MaterialType        `json:"invoice_type"`
	Description     string              `json:"description,omitempty"`
	WithHoldTax     bool                `json:"with_hold_tax"`
	ChequeAmount    decimal.NullDecimal `json:"cheque_amount"`
	VoucherNo       string              `json:"voucher_no,omitempty"`
	Bank            string              `json:"bank,omitempty"`
	DepositDate     *string             `json:"deposit_date,omitempty"`
	DWBank          string              `json:"dw_bank,omitempty"`
	CreatedBy       uuid.UUID           `json:"created_by"`
	UpdatedBy       *uuid.UUID          `json:"updated_by,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// DashboardSummaryDTO reports invoice and purchase order activity over a
// creation-date range. Amounts are the totals of the linked quotations.
type DashboardSummaryDTO struct {
	Range          DashboardRangeDTO      `json:"range"`
	Invoices       InvoiceCountsDTO       `json:"invoices"`
	PurchaseOrders PurchaseOrderCountsDTO `json:"purchase_orders"`
	Amounts        DashboardAmountsDTO    `json:"amounts"`
}

type DashboardRangeDTO struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type InvoiceCountsDTO struct {
	Total  int64 `json:"total"`
	Paid   int64 `json:"paid"`
	Unpaid int64 `json:"unpaid"`
}

type PurchaseOrderCountsDTO struct {
	Delivered int64 `json:"delivered"`
	Pending   int64 `json:"pending"`
}

type PurchaseOrderAmountsDTO struct {
	Delivered decimal.Decimal `json:"delivered"`
	Pending   decimal.Decimal `json:"pending"`
}

type DashboardAmountsDTO struct {
	PurchaseOrders PurchaseOrderAmountsDTO `json:"purchase_orders"`
}

// Pagination response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request types

type CreateCustomerRequest struct {
	CustomerName    string `json:"customer_name" validate:"required,max=255"`
	CompanyName     string `json:"company_name,omitempty" validate:"max=255"`
	Address         string `json:"address,omitempty" validate:"max=1000"`
	CompanyAddress  string `json:"company_address,omitempty" validate:"max=1000"`
	TelephoneNumber string `json:"telephone_number,omitempty" validate:"max=50"`
	Fax             string `json:"fax,omitempty" validate:"max=50"`
	NTN             string `json:"ntn,omitempty" validate:"max=50"`
}

type UpdateCustomerRequest = CreateCustomerRequest

type CreateMaterialRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description,omitempty"`
	MaterialType MaterialType    `json:"material_type,omitempty" validate:"omitempty,oneof=material service"`
	Unit         string          `json:"unit,omitempty" validate:"max=50"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type UpdateMaterialRequest = CreateMaterialRequest

type QuotationMaterialRequest struct {
	MaterialID   uuid.UUID       `json:"material_id" validate:"required"`
	Name         string          `json:"name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Unit         string          `json:"unit,omitempty"`
	MaterialType MaterialType    `json:"material_type,omitempty" validate:"omitempty,oneof=material service"`
}

// CreateQuotationRequest carries no status. Status follows the purchase
// orders that reference the quotation.
type CreateQuotationRequest struct {
	Title        string                     `json:"title" validate:"required,max=255"`
	CustomerID   uuid.UUID                  `json:"customer_id" validate:"required"`
	CustomerName string                     `json:"customer_name,omitempty" validate:"max=255"`
	Materials    []QuotationMaterialRequest `json:"materials" validate:"required,min=1,dive"`
	TotalPrice   decimal.Decimal            `json:"total_price"`
}

type UpdateQuotationRequest = CreateQuotationRequest

type CreatePurchaseOrderRequest struct {
	PurchaseOrderNo string              `json:"purchase_order_no" validate:"required,max=100"`
	Customer        string              `json:"customer" validate:"required,max=255"`
	CustomerID      *uuid.UUID          `json:"customer_id,omitempty"`
	Description     string              `json:"description,omitempty" validate:"max=1000"`
	Status          PurchaseOrderStatus `json:"status,omitempty" validate:"omitempty,oneof=pending delivered"`
	QuotationID     *uuid.UUID          `json:"quotation_id,omitempty"`
	MaterialCosts   MaterialCosts       `json:"material_costs,omitempty"`
}

// UpdatePurchaseOrderRequest edits only what the body carries. An empty
// number, customer or status keeps the stored value. An omitted
// quotation_id, customer_id or material_costs keeps it too, while null clears it.
type UpdatePurchaseOrderRequest struct {
	PurchaseOrderNo string                  `json:"purchase_order_no,omitempty" validate:"max=100"`
	Customer        string                  `json:"customer,omitempty" validate:"max=255"`
	CustomerID      Optional[uuid.UUID]     `json:"customer_id"`
	Description     *string                 `json:"description,omitempty" validate:"omitempty,max=1000"`
	Status          PurchaseOrderStatus     `json:"status,omitempty" validate:"omitempty,oneof=pending delivered"`
	QuotationID     Optional[uuid.UUID]     `json:"quotation_id"`
	MaterialCosts   Optional[MaterialCosts] `json:"material_costs"`
}

type ChallanLineRequest struct {
	MaterialID uuid.UUID       `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type CreateChallanRequest struct {
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id" validate:"required"`
	Materials       []ChallanLineRequest `json:"materials" validate:"required,min=1,dive"`
	Notes           string               `json:"notes,omitempty" validate:"max=1000"`
}

type UpdateTaxRequest struct {
	TaxPercent *decimal.Decimal `json:"tax_percent" validate:"required"`
}

type CreateInvoiceRequest struct {
	CustomerID      uuid.UUID        `json:"customer_id" validate:"required"`
	QuotationID     *uuid.UUID       `json:"quotation_id,omitempty"`
	PurchaseOrderID *uuid.UUID       `json:"purchase_order_id,omitempty"`
	Status          InvoiceStatus    `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	TaxDeducted     *decimal.Decimal `json:"tax_deducted,omitempty"`
	InvoiceType     MaterialType     `json:"invoice_type" validate:"required,oneof=material service"`
	Description     string           `json:"description,omitempty" validate:"max=1000"`
	WithHoldTax     bool             `json:"with_hold_tax"`
	ChequeAmount    *decimal.Decimal `json:"cheque_amount,omitempty"`
	VoucherNo       string           `json:"voucher_no,omitempty" validate:"max=100"`
	Bank            string           `json:"bank,omitempty" validate:"max=100"`
	DepositDate     *string          `json:"deposit_date,omitempty"`
	DWBank          string           `json:"dw_bank,omitempty" validate:"max=100"`
}

type UpdateInvoiceRequest = CreateInvoiceRequest
