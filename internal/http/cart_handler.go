package http

import (
	"context"
	"net/http"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartService interface {
	AddItem(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error)
	UpdateQuantity(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error)
	RemoveItem(ctx context.Context, id domain.Identity, productID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, id domain.Identity) error
	List(ctx context.Context, id domain.Identity) ([]domain.CartLine, error)
	Summary(ctx context.Context, id domain.Identity) (*service.CartSummary, error)
}

type CartHandler struct {
	cart    CartService
	logger  *zap.Logger
	timeout time.Duration
}

func NewCartHandler(cart CartService, logger *zap.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		logger:  logger,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type RemoveItemRequestDTO struct {
	ProductID string `json:"productId"`
}

type CartResponseDTO struct {
	Cart []domain.CartLine `json:"cart"`
}

// GET /my-cart
// Anonymous callers get an empty cart so header counters render zero.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		respondJSON(w, http.StatusOK, make([]domain.CartLine, 0))
		return
	}

	lines, err := h.cart.List(ctx, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if lines == nil {
		lines = make([]domain.CartLine, 0)
	}

	respondJSON(w, http.StatusOK, lines)
}

// GET /cart/summary
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.cart.Summary(ctx, auth.FromContext(ctx))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// POST /cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	lines, err := h.cart.AddItem(ctx, id, req.ProductID, quantity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: lines})
}

// PATCH /cart/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	lines, err := h.cart.UpdateQuantity(ctx, id, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: lines})
}

// DELETE /cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req RemoveItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	lines, err := h.cart.RemoveItem(ctx, id, req.ProductID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: lines})
}

// DELETE /cart-clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.Clear(ctx, auth.FromContext(ctx)); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, struct{}{})
}
