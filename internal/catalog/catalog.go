package catalog

import (
	"context"

	"github.com/davex-ai/SwiftBites/internal/domain"
)

// Catalog resolves product details. Cart, wishlist and checkout depend on
// this interface, not on the storage behind it.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// GetProducts returns the products found, keyed by id. Unknown ids are
	// simply absent from the map.
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
}
