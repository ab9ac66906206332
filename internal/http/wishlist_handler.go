package http

import (
	"context"
	"net/http"
	"time"

	"github.com/davex-ai/SwiftBites/internal/auth"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.uber.org/zap"
)

type WishlistService interface {
	Add(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error)
	Remove(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error)
	List(ctx context.Context, id domain.Identity) ([]domain.Product, error)
}

type WishlistHandler struct {
	wishlist WishlistService
	logger   *zap.Logger
	timeout  time.Duration
}

func NewWishlistHandler(wishlist WishlistService, logger *zap.Logger, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, logger: logger, timeout: timeout}
}

type WishlistRequestDTO struct {
	ProductID string `json:"productId"`
}

type WishlistResponseDTO struct {
	Products []domain.Product `json:"products"`
}

// GET /wishlist
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.wishlist.List(ctx, auth.FromContext(ctx))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, WishlistResponseDTO{Products: products})
}

// POST /wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.wishlist.Add)
}

// DELETE /wishlist
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.wishlist.Remove)
}

func (h *WishlistHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(context.Context, domain.Identity, string) ([]domain.Product, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req WishlistRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	products, err := op(ctx, id, req.ProductID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, WishlistResponseDTO{Products: products})
}
