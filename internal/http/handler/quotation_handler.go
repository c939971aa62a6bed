package handler

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type QuotationHandler struct {
	quotationService *service.QuotationService
	logger           *zap.Logger
}

func NewQuotationHandler(quotationService *service.QuotationService, logger *zap.Logger) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
		logger:           logger,
	}
}

// List returns a page of quotations filtered by customer_id, status and search
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	query := r.URL.Query()

	customerID, err := parseOptionalUUID(query.Get("customer_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}
	filters := repository.QuotationFilters{
		CustomerID: customerID,
		Search:     query.Get("search"),
	}
	if s := query.Get("status"); s != "" {
		status := domain.QuotationStatus(s)
		filters.Status = &status
	}

	result, err := h.quotationService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list quotations")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create saves a quotation. The body carries warnings when the quoted prices
// could not be recorded against the customer.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.quotationService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create quotation")
		return
	}
	respondJSON(w, http.StatusCreated, result.Quotation)
}

func (h *QuotationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	quotation, err := h.quotationService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get quotation")
		return
	}
	respondJSON(w, http.StatusOK, quotation)
}

func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateQuotationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.quotationService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update quotation")
		return
	}
	respondJSON(w, http.StatusOK, result.Quotation)
}

func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.quotationService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete quotation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByCustomer returns every quotation of a customer, newest first
func (h *QuotationHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseUUIDParam(w, r, "customerId")
	if !ok {
		return
	}

	quotations, err := h.quotationService.ListByCustomer(r.Context(), customerID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list customer quotations")
		return
	}
	respondJSON(w, http.StatusOK, quotations)
}
