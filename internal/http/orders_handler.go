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

type OrderService interface {
	PlaceOrder(ctx context.Context, id domain.Identity, req service.PlaceOrderRequest) (*domain.Order, error)
	SetStatus(ctx context.Context, id domain.Identity, orderID, status string) (*domain.Order, error)
	GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	logger  *zap.Logger
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, logger *zap.Logger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		logger:  logger,
		timeout: timeout,
	}
}

// PlaceOrderRequestDTO accepts the storefront checkout form. Any item list or
// total the client sends is ignored; the server prices its own cart.
type PlaceOrderRequestDTO struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type OrderResponseDTO struct {
	ID              string                 `json:"_id"`
	User            string                 `json:"user"`
	OrderItems      []domain.OrderItem     `json:"orderItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Subtotal        float64                `json:"subtotal"`
	ShippingFee     float64                `json:"shippingFee"`
	Tax             float64                `json:"tax"`
	TotalAmount     float64                `json:"totalAmount"`
	Status          string                 `json:"status"`
	StatusHistory   []domain.StatusChange  `json:"statusHistory"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := o.Items
	if items == nil {
		items = make([]domain.OrderItem, 0)
	}
	history := o.StatusHistory
	if history == nil {
		history = make([]domain.StatusChange, 0)
	}
	return OrderResponseDTO{
		ID:              o.ID,
		User:            o.UserID,
		OrderItems:      items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Tax:             o.Tax,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status.String(),
		StatusHistory:   history,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func convertOrders(orders []*domain.Order) []OrderResponseDTO {
	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	return dtos
}

// POST /orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(ctx, id, service.PlaceOrderRequest{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /my-orders
func (h *OrdersHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, auth.FromContext(ctx))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /admin/orders
func (h *OrdersHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx, auth.FromContext(ctx))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /orders/{orderId}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, auth.FromContext(ctx), chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrder(order))
}

// PATCH /orders/{orderId}
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := auth.FromContext(ctx)
	if !id.Authenticated() {
		handleServiceError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.SetStatus(ctx, id, chi.URLParam(r, "orderId"), req.Status)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, convertOrder(order))
}
