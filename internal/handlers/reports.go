// internal/handlers/reports.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

const reportLinkExpiry = 15 * time.Minute

// ReportHandler requests and hands out daily sales spreadsheets
type ReportHandler struct {
	tasks   ports.TaskEnqueuer
	storage ports.ReportStorage
	keyFor  func(day string) string
	logger  *slog.Logger
}

// NewReportHandler creates a new report handler. keyFor maps a day to its
// storage key and must agree with the worker that writes the reports.
func NewReportHandler(tasks ports.TaskEnqueuer, storage ports.ReportStorage,
	keyFor func(day string) string, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		tasks:   tasks,
		storage: storage,
		keyFor:  keyFor,
		logger:  logger.With(slog.String("handler", "reports")),
	}
}

type dailyReportRequest struct {
	Date string `json:"date"`
}

// RequestDailyReport handles POST /api/v1/reports/daily. An empty body or
// date builds yesterday's report.
func (h *ReportHandler) RequestDailyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dailyReportRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if req.Date != "" {
		if _, err := time.Parse(domain.DayLayout, req.Date); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	if err := h.tasks.EnqueueDailyReport(ctx, req.Date); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue daily report",
			slog.String("date", req.Date),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue report")
		return
	}

	respondJSON(w, h.logger, http.StatusAccepted, map[string]string{
		"status": "queued",
		"date":   req.Date,
	})
}

// GetDailyReport handles GET /api/v1/reports/daily/{date} with a
// short-lived download link
func (h *ReportHandler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := r.PathValue("date")
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	key := h.keyFor(day)
	exists, err := h.storage.Exists(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check report",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to check report")
		return
	}
	if !exists {
		respondError(w, h.logger, http.StatusNotFound, "Report not found")
		return
	}

	url, err := h.storage.PresignedURL(ctx, key, reportLinkExpiry)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign report link",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to create download link")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"date":       day,
		"url":        url,
		"expires_at": time.Now().Add(reportLinkExpiry).UTC(),
	})
}
