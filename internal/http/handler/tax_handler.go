package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/mapper"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type TaxHandler struct {
	taxService *service.TaxService
	logger     *zap.Logger
}

func NewTaxHandler(taxService *service.TaxService, logger *zap.Logger) *TaxHandler {
	return &TaxHandler{
		taxService: taxService,
		logger:     logger,
	}
}

// List returns every tax window of both service types
func (h *TaxHandler) List(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.taxService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list taxes")
		return
	}
	respondJSON(w, http.StatusOK, taxes)
}

func (h *TaxHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	tax, err := h.taxService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get tax")
		return
	}
	respondJSON(w, http.StatusOK, tax)
}

// Update closes the open window of the row's service type and opens a new one
// at the requested rate. Existing windows are never edited.
func (h *TaxHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateTaxRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tax, err := h.taxService.Update(r.Context(), id, *req.TaxPercent)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update tax")
		return
	}
	respondJSON(w, http.StatusOK, tax)
}

func (h *TaxHandler) Current(w http.ResponseWriter, r *http.Request) {
	tax, err := h.taxService.Current(r.Context(), domain.MaterialType(chi.URLParam(r, "type")))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get current tax")
		return
	}
	respondJSON(w, http.StatusOK, tax)
}

func (h *TaxHandler) History(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.taxService.History(r.Context(), domain.MaterialType(chi.URLParam(r, "type")))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get tax history")
		return
	}
	respondJSON(w, http.StatusOK, taxes)
}

// ForDate returns the window in force on ?date=
func (h *TaxHandler) ForDate(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("date")
	if value == "" {
		respondWithError(w, http.StatusBadRequest, "Date is required")
		return
	}
	at, err := service.ParseDate(value)
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid date")
		return
	}

	tax, err := h.taxService.Resolve(r.Context(), domain.MaterialType(chi.URLParam(r, "type")), at)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to resolve tax")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToTaxDTO(tax))
}
