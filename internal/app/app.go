// Package app assembles repositories, services and handlers into the HTTP
// application. cmd/api and the end-to-end router tests share it.
package app

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/clock"
	"github.com/tradeflow/backoffice-api/internal/config"
	"github.com/tradeflow/backoffice-api/internal/document"
	"github.com/tradeflow/backoffice-api/internal/http/handler"
	"github.com/tradeflow/backoffice-api/internal/http/middleware"
	"github.com/tradeflow/backoffice-api/internal/http/router"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New wires the application on top of an open database and returns its root handler
func New(cfg *config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) (http.Handler, error) {
	renderer, err := document.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load document templates: %w", err)
	}
	pdf := document.NewGotenbergClient(cfg.Documents.GotenbergURL, cfg.Documents.TimeoutDuration())
	if !pdf.Enabled() {
		log.Warn("Gotenberg URL not configured, PDF documents are unavailable")
	}
	issuer := document.Party{
		Name:    cfg.Documents.CompanyName,
		Address: cfg.Documents.CompanyAddress,
	}

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	challanRepo := repository.NewChallanRepository(db)
	sequenceRepo := repository.NewNumberSequenceRepository(db)
	taxRepo := repository.NewTaxRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	transactor := repository.NewTransactor(db)

	// Services
	taxService := service.NewTaxService(taxRepo, transactor, clk, decimal.NewFromFloat(cfg.Tax.DefaultPercent), log)
	allocator := service.NewNumberAllocator(sequenceRepo, challanRepo, clk, log)
	coordinator := service.NewQuotationStatusCoordinator(quotationRepo, poRepo, log)
	customerService := service.NewCustomerService(customerRepo, log)
	materialService := service.NewMaterialService(materialRepo, log)
	quotationService := service.NewQuotationService(quotationRepo, customerRepo, materialRepo, poRepo, transactor, clk, log)
	poService := service.NewPurchaseOrderService(poRepo, quotationRepo, challanRepo, customerRepo, coordinator, transactor, log)
	challanService := service.NewChallanService(challanRepo, poRepo, quotationRepo, customerRepo, allocator, transactor, clk, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, customerRepo, quotationRepo, poRepo, taxService, clk, log)
	documentService := service.NewDocumentService(invoiceRepo, customerRepo, quotationRepo, poRepo, challanRepo, taxService, renderer, pdf, issuer, log)
	exportService := service.NewExportService(invoiceRepo, customerRepo, poRepo, taxService, clk, log)
	dashboardService := service.NewDashboardService(invoiceRepo, poRepo, log)

	// Handlers
	handlers := router.Handlers{
		Customer:      handler.NewCustomerHandler(customerService, log),
		Material:      handler.NewMaterialHandler(materialService, log),
		Quotation:     handler.NewQuotationHandler(quotationService, log),
		PurchaseOrder: handler.NewPurchaseOrderHandler(poService, log),
		Challan:       handler.NewChallanHandler(challanService, log),
		Tax:           handler.NewTaxHandler(taxService, log),
		Invoice:       handler.NewInvoiceHandler(invoiceService, log),
		Document:      handler.NewDocumentHandler(documentService, log),
		Export:        handler.NewExportHandler(exportService, log),
		Dashboard:     handler.NewDashboardHandler(dashboardService, log),
	}

	authMiddleware := auth.NewMiddleware(auth.NewJWTValidator(&cfg.Auth, clk), log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, pdf, authMiddleware, rateLimiter, handlers)
	return rt.Setup(), nil
}
