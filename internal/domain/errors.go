package domain

import "errors"

var (
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("not allowed to access this resource")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrOutOfStock           = errors.New("product is out of stock")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrInvalidShippingInfo  = errors.New("invalid shipping information")
	ErrInvalidTransition    = errors.New("illegal transition of order status")
	ErrInvalidLineItem      = errors.New("line item price and quantity must not be negative")
	ErrDuplicateOrder       = errors.New("order for this cart already exists")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// Retryable reports whether err is a transient store failure. Only reads and
// idempotent writes should be retried on it; placing an order is not one of them.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
