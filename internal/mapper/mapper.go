package mapper

import (
	"time"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
)

const (
	timestampLayout = "2006-01-02T15:04:05Z"
	dateLayout      = "2006-01-02"
)

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

// ToCustomerDTO converts Customer to CustomerDTO
func ToCustomerDTO(customer *domain.Customer) domain.CustomerDTO {
	return domain.CustomerDTO{
		ID:              customer.ID,
		CustomerName:    customer.CustomerName,
		CompanyName:     customer.CompanyName,
		Address:         customer.Address,
		CompanyAddress:  customer.CompanyAddress,
		TelephoneNumber: customer.TelephoneNumber,
		Fax:             customer.Fax,
		NTN:             customer.NTN,
		CreatedAt:       formatTimestamp(customer.CreatedAt),
		UpdatedAt:       formatTimestamp(customer.UpdatedAt),
	}
}

// ToMaterialDTO converts Material to MaterialDTO
func ToMaterialDTO(material *domain.Material) domain.MaterialDTO {
	return domain.MaterialDTO{
		ID:           material.ID,
		Name:         material.Name,
		Description:  material.Description,
		MaterialType: material.MaterialType,
		Unit:         material.Unit,
		UnitPrice:    material.UnitPrice,
		CreatedAt:    formatTimestamp(material.CreatedAt),
		UpdatedAt:    formatTimestamp(material.UpdatedAt),
	}
}

// ToCustomerMaterialPriceDTO joins a material with the last price quoted to the customer
func ToCustomerMaterialPriceDTO(mp repository.MaterialPrice) domain.CustomerMaterialPriceDTO {
	return domain.CustomerMaterialPriceDTO{
		MaterialID:   mp.Material.ID,
		Name:         mp.Material.Name,
		Description:  mp.Material.Description,
		MaterialType: mp.Material.MaterialType,
		UnitPrice:    mp.Material.UnitPrice,
		LastPrice:    mp.Price.LastPrice,
		UpdatedAt:    formatTimestamp(mp.Price.UpdatedAt),
	}
}

// ToQuotationDTO converts Quotation to QuotationDTO
func ToQuotationDTO(quotation *domain.Quotation) domain.QuotationDTO {
	materials := quotation.Materials
	if materials == nil {
		materials = domain.QuotationMaterials{}
	}
	return domain.QuotationDTO{
		ID:           quotation.ID,
		Title:        quotation.Title,
		CustomerID:   quotation.CustomerID,
		CustomerName: quotation.CustomerName,
		Materials:    materials,
		TotalPrice:   quotation.TotalPrice,
		Status:       quotation.Status,
		CreatedBy:    quotation.CreatedBy,
		UpdatedBy:    quotation.UpdatedBy,
		CreatedAt:    formatTimestamp(quotation.CreatedAt),
		UpdatedAt:    formatTimestamp(quotation.UpdatedAt),
	}
}

// ToPurchaseOrderDTO converts PurchaseOrder to PurchaseOrderDTO. When quotation
// is given its lines are attached with the order's actual cost for the same index.
func ToPurchaseOrderDTO(po *domain.PurchaseOrder, quotation *domain.Quotation) domain.PurchaseOrderDTO {
	dto := domain.PurchaseOrderDTO{
		ID:              po.ID,
		PurchaseOrderNo: po.PurchaseOrderNo,
		Customer:        po.Customer,
		CustomerID:      po.CustomerID,
		Description:     po.Description,
		Status:          po.Status,
		QuotationID:     po.QuotationID,
		MaterialCosts:   po.MaterialCosts,
		CreatedBy:       po.CreatedBy,
		UpdatedBy:       po.UpdatedBy,
		CreatedAt:       formatTimestamp(po.CreatedAt),
		UpdatedAt:       formatTimestamp(po.UpdatedAt),
	}

	if quotation != nil {
		dto.Materials = make([]domain.PurchaseOrderMaterialDTO, len(quotation.Materials))
		for i, line := range quotation.Materials {
			dto.Materials[i] = domain.PurchaseOrderMaterialDTO{QuotationMaterial: line}
			if i < len(po.MaterialCosts) {
				dto.Materials[i].ActualCost = po.MaterialCosts[i]
			}
		}
	}
	return dto
}

// ToChallanDTO converts Challan to ChallanDTO
func ToChallanDTO(challan *domain.Challan) domain.ChallanDTO {
	materials := challan.Materials
	if materials == nil {
		materials = domain.ChallanMaterials{}
	}
	return domain.ChallanDTO{
		ID:              challan.ID,
		ChallanNo:       challan.ChallanNo,
		PurchaseOrderID: challan.PurchaseOrderID,
		QuotationID:     challan.QuotationID,
		CustomerID:      challan.CustomerID,
		CustomerName:    challan.CustomerName,
		Materials:       materials,
		TotalQuantity:   challan.TotalQuantity,
		ChallanDate:     challan.ChallanDate.UTC().Format(dateLayout),
		Notes:           challan.Notes,
		CreatedBy:       challan.CreatedBy,
		CreatedAt:       formatTimestamp(challan.CreatedAt),
	}
}

// ToTaxDTO converts Tax to TaxDTO
func ToTaxDTO(tax *domain.Tax) domain.TaxDTO {
	dto := domain.TaxDTO{
		ID:            tax.ID,
		ServiceType:   tax.ServiceType,
		TaxPercent:    tax.TaxPercent,
		EffectiveFrom: formatTimestamp(tax.EffectiveFrom),
		IsCurrent:     tax.IsOpen(),
	}
	if tax.EffectiveTo != nil {
		to := formatTimestamp(*tax.EffectiveTo)
		dto.EffectiveTo = &to
	}
	return dto
}

// ToInvoiceDTO converts Invoice to InvoiceDTO
func ToInvoiceDTO(invoice *domain.Invoice) domain.InvoiceDTO {
	return domain.InvoiceDTO{
		ID:              invoice.ID,
		CustomerID:      invoice.CustomerID,
		QuotationID:     invoice.QuotationID,
		PurchaseOrderID: invoice.PurchaseOrderID,
		Status:          invoice.Status,
		TotalAmount:     invoice.TotalAmount,
		TaxDeducted:     invoice.TaxDeducted,
		InvoiceType:     invoice.InvoiceType,
		Description:     invoice.Description,
		WithHoldTax:     invoice.WithHoldTax,
		ChequeAmount:    invoice.ChequeAmount,
		VoucherNo:       invoice.VoucherNo,
		Bank:            invoice.Bank,
		DepositDate:     formatDatePtr(invoice.DepositDate),
		DWBank:          invoice.DWBank,
		CreatedBy:       invoice.CreatedBy,
		UpdatedBy:       invoice.UpdatedBy,
		CreatedAt:       formatTimestamp(invoice.CreatedAt),
		UpdatedAt:       formatTimestamp(invoice.UpdatedAt),
	}
}
