package client

import (
	"context"
	"sync"

	"github.com/davex-ai/SwiftBites/internal/domain"
)

// Source reads the lists the aggregates are computed from. *Client
// satisfies it.
type Source interface {
	Cart(ctx context.Context, userID string) ([]domain.CartLine, error)
	Wishlist(ctx context.Context, userID string) ([]domain.Product, error)
}

// Aggregates holds the counters a storefront header renders: cart lines,
// wishlist size, and which products are wishlisted. It only changes on
// Refetch, SetUser, or an Apply call.
type Aggregates struct {
	source Source

	mu            sync.RWMutex
	userID        string
	generation    uint64
	loading       bool
	cartCount     int
	wishlistCount int
	wishlisted    map[string]struct{}
}

func NewAggregates(source Source) *Aggregates {
	return &Aggregates{
		source:     source,
		wishlisted: make(map[string]struct{}),
	}
}

// SetUser switches the session owner. An empty id logs out. The aggregates
// are refetched when the owner changes.
func (a *Aggregates) SetUser(ctx context.Context, userID string) error {
	a.mu.Lock()
	if a.userID == userID {
		a.mu.Unlock()
		return nil
	}
	a.userID = userID
	a.generation++
	a.mu.Unlock()

	return a.Refetch(ctx)
}

// Refetch re-reads cart and wishlist and recomputes every counter. With no
// user, or when either read fails, the counters are reset to zero.
// A result that arrives after the owner changed is discarded.
func (a *Aggregates) Refetch(ctx context.Context) error {
	a.mu.Lock()
	userID, gen := a.userID, a.generation
	if userID == "" {
		a.resetLocked()
		a.mu.Unlock()
		return nil
	}
	a.loading = true
	a.mu.Unlock()

	lines, products, err := a.fetch(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return err
	}
	a.loading = false
	if err != nil {
		a.resetLocked()
		return err
	}
	a.cartCount = len(lines)
	a.setWishlistLocked(products)
	return nil
}

func (a *Aggregates) fetch(ctx context.Context, userID string) ([]domain.CartLine, []domain.Product, error) {
	lines, err := a.source.Cart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	products, err := a.source.Wishlist(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return lines, products, nil
}

// ApplyCart takes the cart returned by a successful cart mutation.
func (a *Aggregates) ApplyCart(lines []domain.CartLine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID == "" {
		return
	}
	a.cartCount = len(lines)
}

// ApplyWishlist takes the wishlist returned by a successful wishlist mutation.
func (a *Aggregates) ApplyWishlist(products []domain.Product) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID == "" {
		return
	}
	a.setWishlistLocked(products)
}

func (a *Aggregates) CartCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cartCount
}

func (a *Aggregates) WishlistCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.wishlistCount
}

func (a *Aggregates) IsWishlisted(productID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.wishlisted[productID]
	return ok
}

func (a *Aggregates) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *Aggregates) setWishlistLocked(products []domain.Product) {
	ids := make(map[string]struct{}, len(products))
	for _, p := range products {
		ids[p.ID] = struct{}{}
	}
	a.wishlisted = ids
	a.wishlistCount = len(products)
}

func (a *Aggregates) resetLocked() {
	a.loading = false
	a.cartCount = 0
	a.wishlistCount = 0
	a.wishlisted = make(map[string]struct{})
}
