package handler

import (
	"net/http"

	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Summary reports invoice and purchase order counts for ?startDate and ?endDate
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseOptionalDate(query.Get("startDate"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid start date")
		return
	}
	to, err := parseOptionalDate(query.Get("endDate"))
	if err != nil {
		respondServiceError(w, h.logger, err, "Invalid end date")
		return
	}

	summary, err := h.dashboardService.GetSummary(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get dashboard summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
