// internal/handlers/products.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

const maxSearchLimit = 200

// ProductHandler serves the sellable catalog
type ProductHandler struct {
	service ports.SalesService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.SalesService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// ListProducts handles GET /api/v1/products. Without filters it returns the
// full active catalog; search, category and limit narrow it.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := ports.ProductFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		OnlyActive: true,
	}
	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, h.logger, http.StatusBadRequest, "category must be a positive integer")
			return
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			respondError(w, h.logger, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = min(limit, maxSearchLimit)
	}

	var (
		products []domain.Product
		err      error
	)
	if filter.Search == "" && filter.CategoryID == nil && filter.Limit == 0 {
		products, err = h.service.ListProducts(ctx)
	} else {
		products, err = h.service.SearchProducts(ctx, filter)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to list products")
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, h.logger, http.StatusOK, products)
}

// GetProductByCode handles GET /api/v1/products/code/{code}
func (h *ProductHandler) GetProductByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		respondError(w, h.logger, http.StatusBadRequest, "code is required")
		return
	}

	product, err := h.service.GetProductByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			respondError(w, h.logger, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get product",
			slog.String("code", code),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, product)
}
