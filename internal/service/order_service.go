package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davex-ai/SwiftBites/internal/cache"
	"github.com/davex-ai/SwiftBites/internal/catalog"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/logger"
	"github.com/davex-ai/SwiftBites/internal/pricing"
	"github.com/davex-ai/SwiftBites/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outbox records an order event. It is called inside the transaction that
// makes the change, so the event exists exactly when the change committed.
type Outbox interface {
	Enqueue(ctx context.Context, event domain.OrderEvent) error
}

type PlaceOrderRequest struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

type OrderService struct {
	orders  repository.OrderRepository
	carts   repository.CartRepository
	tx      repository.Transactor
	cache   cache.CartCache
	catalog catalog.Catalog
	pricing *pricing.Calculator
	outbox  Outbox
	logger  *zap.Logger
	now     func() time.Time
}

type OrderServiceDeps struct {
	Orders  repository.OrderRepository
	Carts   repository.CartRepository
	Tx      repository.Transactor
	Cache   cache.CartCache
	Catalog catalog.Catalog
	Pricing *pricing.Calculator
	Outbox  Outbox
	Logger  *zap.Logger
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	return &OrderService{
		orders:  deps.Orders,
		carts:   deps.Carts,
		tx:      deps.Tx,
		cache:   deps.Cache,
		catalog: deps.Catalog,
		pricing: deps.Pricing,
		outbox:  deps.Outbox,
		logger:  deps.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder turns the caller's cart into a pending order, empties the cart and
// records the order.placed event in one transaction. Prices and names are
// frozen from the catalog.
func (s *OrderService) PlaceOrder(ctx context.Context, id domain.Identity, req PlaceOrderRequest) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	var order *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetCart(ctx, id.UserID)
		if errors.Is(err, repository.ErrCartNotFound) || (err == nil && cart.IsEmpty()) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}

		order, err = s.buildOrder(ctx, cart, req)
		if err != nil {
			return err
		}

		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.carts.ClearCart(ctx, id.UserID); err != nil {
			return err
		}
		return s.enqueue(ctx, domain.OrderEvent{
			Type:        domain.EventOrderPlaced,
			OrderID:     order.ID,
			UserID:      order.UserID,
			Status:      order.Status,
			TotalAmount: order.TotalAmount,
		})
	})
	if err != nil {
		if !isClientError(err) {
			logger.WithContext(ctx, s.logger).Error("place order failed", zap.String("user_id", id.UserID), zap.Error(err))
		}
		return nil, err
	}

	invalidateCart(ctx, s.cache, s.logger, id.UserID)
	logger.WithContext(ctx, s.logger).Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Float64("total_amount", order.TotalAmount))
	return order, nil
}

func (s *OrderService) buildOrder(ctx context.Context, cart *domain.Cart, req PlaceOrderRequest) (*domain.Order, error) {
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	payment := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if payment == "" {
		payment = domain.PaymentCashOnDelivery
	}
	if payment != domain.PaymentCashOnDelivery {
		return nil, fmt.Errorf("%w: unsupported payment method %q", domain.ErrInvalidShippingInfo, req.PaymentMethod)
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    item.Quantity,
		})
	}

	breakdown, err := s.pricing.Calculate(pricing.FromOrderItems(items))
	if err != nil {
		return nil, err
	}
	totals := breakdown.Rounded()

	now := s.now()
	return &domain.Order{
		ID:              uuid.NewString(),
		UserID:          cart.UserID,
		CartKey:         domain.CartKey(cart),
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   payment,
		Subtotal:        totals.Subtotal,
		ShippingFee:     totals.Shipping,
		Tax:             totals.Tax,
		TotalAmount:     totals.Total,
		Status:          domain.OrderStatusPending,
		StatusHistory:   []domain.StatusChange{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// SetStatus is admin only. The write is conditional on the status that was
// checked, so two admins racing cannot both succeed from the same state.
func (s *OrderService) SetStatus(ctx context.Context, id domain.Identity, orderID, status string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, status)
	}

	var (
		order  *domain.Order
		change domain.StatusChange
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, order.Status, next)
		}

		change = domain.StatusChange{
			From:      order.Status,
			To:        next,
			ChangedBy: id.UserID,
			ChangedAt: s.now(),
		}
		if err := s.orders.UpdateStatus(ctx, orderID, change); err != nil {
			return err
		}
		return s.enqueue(ctx, domain.OrderEvent{
			Type:           domain.EventOrderStatusChanged,
			OrderID:        order.ID,
			UserID:         order.UserID,
			Status:         next,
			PreviousStatus: change.From,
			TotalAmount:    order.TotalAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	order.StatusHistory = append(order.StatusHistory, change)
	order.UpdatedAt = change.ChangedAt

	logger.WithContext(ctx, s.logger).Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", change.From.String()),
		zap.String("to", change.To.String()),
		zap.String("changed_by", id.UserID))
	return order, nil
}

// GetOrder is visible to the owner and to admins.
func (s *OrderService) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(id.UserID) && !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.orders.ListOrdersByUserID(ctx, id.UserID)
}

func (s *OrderService) ListAllOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListOrders(ctx)
}

func (s *OrderService) enqueue(ctx context.Context, event domain.OrderEvent) error {
	if s.outbox == nil {
		return nil
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()
	return s.outbox.Enqueue(ctx, event)
}

func invalidateCart(ctx context.Context, c cache.CartCache, l *zap.Logger, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := c.Invalidate(ctx, userID); err != nil {
		logger.WithContext(ctx, l).Warn("cart cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// isClientError reports failures caused by the request rather than the system.
func isClientError(err error) bool {
	for _, target := range []error{
		domain.ErrEmptyCart,
		domain.ErrInvalidShippingInfo,
		domain.ErrDuplicateOrder,
		domain.ErrProductNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
