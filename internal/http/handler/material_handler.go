package handler

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/domain"
	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type MaterialHandler struct {
	materialService *service.MaterialService
	logger          *zap.Logger
}

func NewMaterialHandler(materialService *service.MaterialService, logger *zap.Logger) *MaterialHandler {
	return &MaterialHandler{
		materialService: materialService,
		logger:          logger,
	}
}

// List returns a page of catalogue entries. ?type= narrows to material or service.
func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var materialType *domain.MaterialType
	if t := domain.MaterialType(r.URL.Query().Get("type")); t != "" {
		if !t.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid material type")
			return
		}
		materialType = &t
	}

	result, err := h.materialService.List(r.Context(), page, pageSize, r.URL.Query().Get("search"), materialType)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list materials")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaterialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	material, err := h.materialService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create material")
		return
	}
	respondJSON(w, http.StatusCreated, material)
}

func (h *MaterialHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	material, err := h.materialService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get material")
		return
	}
	respondJSON(w, http.StatusOK, material)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateMaterialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	material, err := h.materialService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update material")
		return
	}
	respondJSON(w, http.StatusOK, material)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.materialService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete material")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
