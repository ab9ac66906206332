package cache

import (
	"context"
	"errors"

	"github.com/davex-ai/SwiftBites/internal/domain"
)

// CartCache holds raw cart documents. Prices are never cached; they are
// resolved against the catalog on every read.
//
// A fill races with writers: a reader loads the cart, a writer changes it and
// invalidates, then the reader's fill lands. To keep that fill out, readers
// take Version before loading from the store and pass it to Fill, which
// stores nothing once Invalidate has moved the version on.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Fill(ctx context.Context, userID string, version int64, cart *domain.Cart) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
