package http

import (
	"context"
	"net/http"
	"time"

	"github.com/davex-ai/SwiftBites/internal/catalog"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	catalog catalog.Catalog
	logger  *zap.Logger
	timeout time.Duration
}

func NewProductHandler(catalog catalog.Catalog, logger *zap.Logger, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

// GET /products?category=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, r.URL.Query().Get("category"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = make([]*domain.Product, 0)
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /products/{productId}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
