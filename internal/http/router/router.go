package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/tradeflow/backoffice-api/internal/auth"
	"github.com/tradeflow/backoffice-api/internal/config"
	"github.com/tradeflow/backoffice-api/internal/database"
	"github.com/tradeflow/backoffice-api/internal/document"
	"github.com/tradeflow/backoffice-api/internal/http/handler"
	"github.com/tradeflow/backoffice-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Customer      *handler.CustomerHandler
	Material      *handler.MaterialHandler
	Quotation     *handler.QuotationHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Challan       *handler.ChallanHandler
	Tax           *handler.TaxHandler
	Invoice       *handler.InvoiceHandler
	Document      *handler.DocumentHandler
	Export        *handler.ExportHandler
	Dashboard     *handler.DashboardHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	pdf            *document.GotenbergClient
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	pdf *document.GotenbergClient,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		pdf:            pdf,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security, rt.cfg.App.IsDevelopment()))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (liveness)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"service": "database",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check. The PDF renderer is optional and only
	// reported, it never makes the service unready.
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy"}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}

		switch err := rt.pdf.Ping(r.Context()); {
		case !rt.pdf.Enabled():
			checks["pdf"] = map[string]interface{}{"status": "disabled"}
		case err != nil:
			rt.logger.Warn("Gotenberg health check failed", zap.Error(err))
			checks["pdf"] = map[string]interface{}{"status": "unhealthy"}
		default:
			checks["pdf"] = map[string]interface{}{"status": "healthy"}
		}

		status, label := http.StatusOK, "healthy"
		if !allHealthy {
			status, label = http.StatusServiceUnavailable, "unhealthy"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": label,
			"checks": checks,
		})
	})

	h := rt.handlers
	adminOnly := rt.authMiddleware.RequireRole(auth.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.Customer.List)
			r.Post("/", h.Customer.Create)
			r.Get("/{id}", h.Customer.GetByID)
			r.Put("/{id}", h.Customer.Update)
			r.With(adminOnly).Delete("/{id}", h.Customer.Delete)
			r.Get("/{id}/materials", h.Customer.MaterialPrices)
		})

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", h.Material.List)
			r.Post("/", h.Material.Create)
			r.Get("/{id}", h.Material.GetByID)
			r.Put("/{id}", h.Material.Update)
			r.With(adminOnly).Delete("/{id}", h.Material.Delete)
		})

		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", h.Quotation.List)
			r.Post("/", h.Quotation.Create)
			r.Get("/customer/{customerId}", h.Quotation.ListByCustomer)
			r.Get("/{id}", h.Quotation.GetByID)
			r.Put("/{id}", h.Quotation.Update)
			r.With(adminOnly).Delete("/{id}", h.Quotation.Delete)
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", h.PurchaseOrder.List)
			r.Post("/", h.PurchaseOrder.Create)
			r.Get("/{id}", h.PurchaseOrder.GetByID)
			r.Put("/{id}", h.PurchaseOrder.Update)
			r.With(adminOnly).Delete("/{id}", h.PurchaseOrder.Delete)
		})

		r.Route("/challans", func(r chi.Router) {
			r.Get("/", h.Challan.List)
			r.Post("/", h.Challan.Create)
			r.Get("/purchase-order/{id}/materials", h.Challan.AvailableMaterials)
			r.Get("/purchase-order/{id}/history", h.Challan.History)
			r.Get("/{id}", h.Challan.GetByID)
			r.With(adminOnly).Delete("/{id}", h.Challan.Delete)
		})

		r.Route("/taxes", func(r chi.Router) {
			r.Get("/", h.Tax.List)
			r.Get("/service-type/{type}", h.Tax.Current)
			r.Get("/service-type/{type}/history", h.Tax.History)
			r.Get("/service-type/{type}/for-date", h.Tax.ForDate)
			r.Get("/{id}", h.Tax.GetByID)
			r.With(adminOnly).Put("/{id}", h.Tax.Update)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.Invoice.List)
			r.Post("/", h.Invoice.Create)
			r.Get("/{id}", h.Invoice.GetByID)
			r.Put("/{id}", h.Invoice.Update)
			r.With(adminOnly).Delete("/{id}", h.Invoice.Delete)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/invoices/{id}", h.Document.InvoicePDF)
			r.Get("/invoices/{id}/html", h.Document.InvoiceHTML)
			r.Get("/quotations/{id}", h.Document.QuotationPDF)
			r.Get("/quotations/{id}/html", h.Document.QuotationHTML)
			r.Get("/challans/{id}", h.Document.ChallanPDF)
			r.Get("/challans/{id}/html", h.Document.ChallanHTML)
		})

		r.Get("/exports/paid-invoices.csv", h.Export.PaidInvoices)
		r.Get("/dashboard/summary", h.Dashboard.Summary)
	})

	return r
}
