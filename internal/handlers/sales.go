// internal/handlers/sales.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

// SaleHandler records and lists sales
type SaleHandler struct {
	service ports.SalesService
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SalesService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// CommitSale handles POST /api/v1/sales. A recorded sale answers 201; a
// sale refused by validation or stock answers 409 with success=false and
// the reason in message.
func (h *SaleHandler) CommitSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.SaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, h.logger, http.StatusBadRequest, domain.SaleResult{Success: false, Message: err.Error()})
		return
	}

	result, err := h.service.CommitSale(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to commit sale",
			slog.Int("lines", len(req.Lines)),
			slog.String("error", err.Error()))
		respondJSON(w, h.logger, http.StatusInternalServerError,
			domain.SaleResult{Success: false, Message: "Failed to record sale"})
		return
	}

	if !result.Success {
		respondJSON(w, h.logger, http.StatusConflict, result)
		return
	}

	ctx = logger.WithValue(ctx, logger.ContextKeySaleID, result.SaleID)
	h.logger.DebugContext(ctx, "sale accepted", slog.Int64("total", req.Total()))
	respondJSON(w, h.logger, http.StatusCreated, result)
}

// ListSales handles GET /api/v1/sales?date=YYYY-MM-DD; date defaults to today
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day := r.URL.Query().Get("date")
	if day == "" {
		day = time.Now().Format(domain.DayLayout)
	}
	if _, err := time.Parse(domain.DayLayout, day); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	sales, err := h.service.ListSalesByDate(ctx, day)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sales",
			slog.String("date", day),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to list sales")
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}

	var total int64
	for _, s := range sales {
		total += s.Total
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"date":  day,
		"count": len(sales),
		"total": total,
		"sales": sales,
	})
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	sale, err := h.service.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "Sale not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get sale",
			slog.String("sale_id", id.String()),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve sale")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, sale)
}
