package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/document"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DocumentFormat selects the output of a document render
type DocumentFormat string

const (
	FormatHTML DocumentFormat = "html"
	FormatPDF  DocumentFormat = "pdf"
)

// RenderedDocument is a printable document ready to be written to a response
type RenderedDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DocumentService assembles invoices, quotations and delivery challans into
// printable HTML and converts them to PDF.
type DocumentService struct {
	invoiceRepo   *repository.InvoiceRepository
	customerRepo  *repository.CustomerRepository
	quotationRepo *repository.QuotationRepository
	poRepo        *repository.PurchaseOrderRepository
	challanRepo   *repository.ChallanRepository
	taxes         *TaxService
	renderer      *document.Renderer
	pdf           *document.GotenbergClient
	issuer        document.Party
	logger        *zap.Logger
}

func NewDocumentService(
	invoiceRepo *repository.InvoiceRepository,
	customerRepo *repository.CustomerRepository,
	quotationRepo *repository.QuotationRepository,
	poRepo *repository.PurchaseOrderRepository,
	challanRepo *repository.ChallanRepository,
	taxes *TaxService,
	renderer *document.Renderer,
	pdf *document.GotenbergClient,
	issuer document.Party,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		invoiceRepo:   invoiceRepo,
		customerRepo:  customerRepo,
		quotationRepo: quotationRepo,
		poRepo:        poRepo,
		challanRepo:   challanRepo,
		taxes:         taxes,
		renderer:      renderer,
		pdf:           pdf,
		issuer:        issuer,
		logger:        logger,
	}
}

// invoiceSources holds the records an invoice document is assembled from
type invoiceSources struct {
	customer  *domain.Customer
	quotation *domain.Quotation
	po        *domain.PurchaseOrder
}

func (s *DocumentService) loadInvoiceSources(ctx context.Context, invoice *domain.Invoice) (*invoiceSources, error) {
	var src invoiceSources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		customer, err := s.customerRepo.GetByID(gctx, invoice.CustomerID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("failed to get customer: %w", err)
		}
		src.customer = customer
		return nil
	})
	if invoice.QuotationID != nil {
		g.Go(func() error {
			quotation, err := s.quotationRepo.GetByID(gctx, nil, *invoice.QuotationID)
			if err != nil && !repository.IsNotFound(err) {
				return fmt.Errorf("failed to get quotation: %w", err)
			}
			src.quotation = quotation
			return nil
		})
	}
	if invoice.PurchaseOrderID != nil {
		g.Go(func() error {
			po, err := s.poRepo.GetByID(gctx, nil, *invoice.PurchaseOrderID)
			if err != nil && !repository.IsNotFound(err) {
				return fmt.Errorf("failed to get purchase order: %w", err)
			}
			src.po = po
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fall back to the quotation the purchase order was raised against
	if src.quotation == nil && src.po != nil && src.po.QuotationID != nil {
		quotation, err := s.quotationRepo.GetByID(ctx, nil, *src.po.QuotationID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get quotation: %w", err)
		}
		src.quotation = quotation
	}
	return &src, nil
}

// BuildInvoiceDocument prices the invoice lines of the invoice's type and
// applies the withholding rate in force when the invoice was raised.
func (s *DocumentService) BuildInvoiceDocument(ctx context.Context, id uuid.UUID) (*document.InvoiceDocument, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	src, err := s.loadInvoiceSources(ctx, invoice)
	if err != nil {
		return nil, err
	}

	taxPercent := decimal.Zero
	if invoice.WithHoldTax {
		taxPercent, err = s.taxes.ResolveOrDefault(ctx, invoice.InvoiceType, invoice.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	var lines []document.Line
	if src.quotation != nil {
		for _, m := range src.quotation.Materials {
			if m.MaterialType != invoice.InvoiceType {
				continue
			}
			lines = append(lines, document.Line{
				Name:      m.Name,
				Unit:      m.Unit,
				Quantity:  m.Quantity,
				UnitPrice: m.UnitPrice,
				Total:     LineTotal(m),
			})
		}
	}

	subtotal := invoice.TotalAmount
	if len(lines) > 0 {
		subtotal = decimal.Zero
		for _, l := range lines {
			subtotal = subtotal.Add(l.Total)
		}
	}
	taxAmount := percentOf(subtotal, taxPercent)

	doc := &document.InvoiceDocument{
		Issuer:          s.issuer,
		Customer:        customerParty(src.customer),
		InvoiceID:       invoice.ID.String(),
		Date:            invoice.CreatedAt,
		PurchaseOrderNo: "N/A",
		Description:     invoice.Description,
		InvoiceType:     string(invoice.InvoiceType),
		Lines:           lines,
		Totals: document.Totals{
			Subtotal:   subtotal,
			TaxPercent: taxPercent,
			TaxAmount:  taxAmount,
			GrandTotal: subtotal.Add(taxAmount),
		},
	}
	if src.po != nil {
		doc.PurchaseOrderNo = src.po.PurchaseOrderNo
	}
	return doc, nil
}

// BuildQuotationDocument taxes each line at the rate of its own type in force
// when the quotation was created.
func (s *DocumentService) BuildQuotationDocument(ctx context.Context, id uuid.UUID) (*document.QuotationDocument, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}

	var (
		customer              *domain.Customer
		materialRate, svcRate decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.customerRepo.GetByID(gctx, quotation.CustomerID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("failed to get customer: %w", err)
		}
		customer = c
		return nil
	})
	g.Go(func() error {
		var err error
		materialRate, err = s.taxes.ResolveOrDefault(gctx, domain.MaterialTypeMaterial, quotation.CreatedAt)
		return err
	})
	g.Go(func() error {
		var err error
		svcRate, err = s.taxes.ResolveOrDefault(gctx, domain.MaterialTypeService, quotation.CreatedAt)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &document.QuotationDocument{
		Issuer:   s.issuer,
		Customer: customerParty(customer),
		Title:    quotation.Title,
		Date:     quotation.CreatedAt,
	}
	if customer == nil {
		doc.Customer.Name = quotation.CustomerName
	}

	for _, m := range quotation.Materials {
		rate := materialRate
		if m.MaterialType == domain.MaterialTypeService {
			rate = svcRate
		}
		total := LineTotal(m)
		line := document.Line{
			Name:       m.Name,
			Unit:       m.Unit,
			Quantity:   m.Quantity,
			UnitPrice:  m.UnitPrice,
			Total:      total,
			TaxPercent: rate,
			TaxAmount:  percentOf(total, rate),
		}
		doc.Lines = append(doc.Lines, line)
		doc.Totals.Subtotal = doc.Totals.Subtotal.Add(line.Total)
		doc.Totals.TaxAmount = doc.Totals.TaxAmount.Add(line.TaxAmount)
	}
	doc.Totals.GrandTotal = doc.Totals.Subtotal.Add(doc.Totals.TaxAmount)
	return doc, nil
}

func (s *DocumentService) BuildChallanDocument(ctx context.Context, id uuid.UUID) (*document.ChallanDocument, error) {
	challan, err := s.challanRepo.GetByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrChallanNotFound
		}
		return nil, fmt.Errorf("failed to get challan: %w", err)
	}

	doc := &document.ChallanDocument{
		Issuer:        s.issuer,
		ChallanNo:     challan.ChallanNo,
		Date:          challan.ChallanDate,
		CustomerName:  challan.CustomerName,
		Notes:         challan.Notes,
		TotalQuantity: challan.TotalQuantity,
	}
	po, err := s.poRepo.GetByID(ctx, nil, challan.PurchaseOrderID)
	switch {
	case err == nil:
		doc.PurchaseOrderNo = po.PurchaseOrderNo
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	for _, m := range challan.Materials {
		doc.Lines = append(doc.Lines, document.DeliveryLine{Name: m.MaterialName, Unit: m.Unit, Quantity: m.Quantity})
	}
	return doc, nil
}

func (s *DocumentService) Invoice(ctx context.Context, id uuid.UUID, format DocumentFormat) (*RenderedDocument, error) {
	doc, err := s.BuildInvoiceDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Invoice(*doc)
	if err != nil {
		return nil, err
	}
	return s.output(ctx, "invoice-"+doc.InvoiceID, html, format)
}

func (s *DocumentService) Quotation(ctx context.Context, id uuid.UUID, format DocumentFormat) (*RenderedDocument, error) {
	doc, err := s.BuildQuotationDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Quotation(*doc)
	if err != nil {
		return nil, err
	}
	return s.output(ctx, "quotation-"+id.String(), html, format)
}

func (s *DocumentService) Challan(ctx context.Context, id uuid.UUID, format DocumentFormat) (*RenderedDocument, error) {
	doc, err := s.BuildChallanDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.Challan(*doc)
	if err != nil {
		return nil, err
	}
	return s.output(ctx, "challan-"+doc.ChallanNo, html, format)
}

func (s *DocumentService) output(ctx context.Context, name string, html []byte, format DocumentFormat) (*RenderedDocument, error) {
	if format != FormatPDF {
		return &RenderedDocument{Filename: name + ".html", ContentType: "text/html; charset=utf-8", Body: html}, nil
	}

	start := time.Now()
	pdf, err := s.pdf.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	s.logger.Debug("pdf rendered",
		zap.String("document", name),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	return &RenderedDocument{Filename: name + ".pdf", ContentType: "application/pdf", Body: pdf}, nil
}

func customerParty(c *domain.Customer) document.Party {
	if c == nil {
		return document.Party{Name: "N/A"}
	}
	party := document.Party{
		Name:    c.CompanyName,
		Address: c.CompanyAddress,
		Phone:   c.TelephoneNumber,
		NTN:     c.NTN,
	}
	if party.Name == "" {
		party.Name = c.CustomerName
	}
	if party.Address == "" {
		party.Address = c.Address
	}
	return party
}

// percentOf returns amount * percent / 100 rounded to cents
func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}
