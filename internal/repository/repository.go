package repository

import (
	"context"
	"errors"

	"github.com/davex-ai/SwiftBites/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem increments the line for item.ProductID, inserting it (and the
	// cart) when absent.
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type WishlistRepository interface {
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	AddProduct(ctx context.Context, userID string, productID string) error
	RemoveProduct(ctx context.Context, userID string, productID string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// UpdateStatus applies change only while the order is still in change.From.
	UpdateStatus(ctx context.Context, id string, change domain.StatusChange) error
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListByUserID(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// OutboxRepository holds order events written in the same transaction as the
// change they describe, until the relay has published them.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event domain.OrderEvent) error
	// ListPending returns unpublished events, oldest first.
	ListPending(ctx context.Context, limit int) ([]domain.OrderEvent, error)
	MarkPublished(ctx context.Context, eventID string) error
}

// Transactor runs fn so that every repository call made with the context it
// receives commits or aborts together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
