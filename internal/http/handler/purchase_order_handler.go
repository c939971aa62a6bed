package handler

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type PurchaseOrderHandler struct {
	poService *service.PurchaseOrderService
	logger    *zap.Logger
}

func NewPurchaseOrderHandler(poService *service.PurchaseOrderService, logger *zap.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		poService: poService,
		logger:    logger,
	}
}

// List supports customer, status, quotation_id, startDate, endDate and search filters
func (h *PurchaseOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	query := r.URL.Query()

	filters := repository.PurchaseOrderFilters{
		Customer: query.Get("customer"),
		Search:   query.Get("search"),
	}
	if s := query.Get("status"); s != "" {
		status := domain.PurchaseOrderStatus(s)
		filters.Status = &status
	}

	var err error
	if filters.QuotationID, err = parseOptionalUUID(query.Get("quotation_id")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quotation ID")
		return
	}
	if filters.StartDate, err = parseOptionalDate(query.Get("startDate")); err != nil {
		respondServiceError(w, h.logger, err, "Invalid start date")
		return
	}
	if filters.EndDate, err = parseOptionalDate(query.Get("endDate")); err != nil {
		respondServiceError(w, h.logger, err, "Invalid end date")
		return
	}

	result, err := h.poService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list purchase orders")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *PurchaseOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	po, err := h.poService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create purchase order")
		return
	}
	respondJSON(w, http.StatusCreated, po)
}

func (h *PurchaseOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	po, err := h.poService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get purchase order")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

// Update edits the fields present in the body. Relinking to another quotation moves the
// po_received status in the same transaction.
func (h *PurchaseOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdatePurchaseOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	po, err := h.poService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update purchase order")
		return
	}
	respondJSON(w, http.StatusOK, po)
}

func (h *PurchaseOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.poService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete purchase order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
