package handler

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/repository"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type ChallanHandler struct {
	challanService *service.ChallanService
	logger         *zap.Logger
}

func NewChallanHandler(challanService *service.ChallanService, logger *zap.Logger) *ChallanHandler {
	return &ChallanHandler{
		challanService: challanService,
		logger:         logger,
	}
}

func (h *ChallanHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	query := r.URL.Query()

	filters := repository.ChallanFilters{Search: query.Get("search")}
	var err error
	if filters.PurchaseOrderID, err = parseOptionalUUID(query.Get("purchase_order_id")); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid purchase order ID")
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

	result, err := h.challanService.List(r.Context(), page, pageSize, filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list challans")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create issues a delivery challan. Line violations come back together as
// {message, errors[]} with status 400.
func (h *ChallanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateChallanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	challan, err := h.challanService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create challan")
		return
	}
	respondJSON(w, http.StatusCreated, challan)
}

func (h *ChallanHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	challan, err := h.challanService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get challan")
		return
	}
	respondJSON(w, http.StatusOK, challan)
}

func (h *ChallanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.challanService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete challan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AvailableMaterials reports ordered, delivered and remaining quantities per
// deliverable line of the purchase order.
func (h *ChallanHandler) AvailableMaterials(w http.ResponseWriter, r *http.Request) {
	poID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	available, err := h.challanService.AvailableMaterials(r.Context(), poID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get available materials")
		return
	}
	respondJSON(w, http.StatusOK, available)
}

func (h *ChallanHandler) History(w http.ResponseWriter, r *http.Request) {
	poID, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	history, err := h.challanService.History(r.Context(), poID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get delivery history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}
