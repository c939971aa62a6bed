package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type renderFunc func(ctx context.Context, id uuid.UUID, format service.DocumentFormat) (*service.RenderedDocument, error)

// DocumentHandler serves printable invoices, quotations and challans as PDF
// or as the HTML the PDF is rendered from.
type DocumentHandler struct {
	documentService *service.DocumentService
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		logger:          logger,
	}
}

func (h *DocumentHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Invoice, service.FormatPDF)
}

func (h *DocumentHandler) InvoiceHTML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Invoice, service.FormatHTML)
}

func (h *DocumentHandler) QuotationPDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Quotation, service.FormatPDF)
}

func (h *DocumentHandler) QuotationHTML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Quotation, service.FormatHTML)
}

func (h *DocumentHandler) ChallanPDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Challan, service.FormatPDF)
}

func (h *DocumentHandler) ChallanHTML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.documentService.Challan, service.FormatHTML)
}

func (h *DocumentHandler) serve(w http.ResponseWriter, r *http.Request, render renderFunc, format service.DocumentFormat) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	doc, err := render(r.Context(), id, format)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to render document")
		return
	}

	disposition := "inline"
	if format == service.FormatPDF {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
