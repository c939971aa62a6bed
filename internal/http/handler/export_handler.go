package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tradeflow/backoffice-api/internal/service"
	"go.uber.org/zap"
)

type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewExportHandler(exportService *service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// PaidInvoices streams paid invoices deposited between ?startDate and ?endDate as CSV
func (h *ExportHandler) PaidInvoices(w http.ResponseWriter, r *http.Request) {
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

	var start, end time.Time
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	// Headers are committed by the first write, so the range is checked up front
	if err := service.ValidateRange(start, end); err != nil {
		respondServiceError(w, h.logger, err, "Invalid date range")
		return
	}

	filename := fmt.Sprintf("paid-invoices-%s-to-%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	out := &trackingWriter{w: w}
	rows, err := h.exportService.WritePaidInvoicesCSV(r.Context(), start, end, out)
	if err == nil {
		return
	}
	if !out.written {
		w.Header().Del("Content-Disposition")
		respondServiceError(w, h.logger, err, "Failed to export paid invoices")
		return
	}
	// Part of the body is already on the wire
	h.logger.Error("paid invoice export aborted", zap.Int("rows_written", rows), zap.Error(err))
}

// trackingWriter records whether the response body has been started
type trackingWriter struct {
	w       http.ResponseWriter
	written bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.written = true
	return t.w.Write(p)
}
