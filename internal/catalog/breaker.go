package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 10 * time.Second}
}

// BreakerCatalog fails fast with ErrStorageUnavailable while the catalog
// keeps erroring. A missing product is an answer, not a failure.
type BreakerCatalog struct {
	next Catalog
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerCatalog(next Catalog, settings BreakerSettings, logger *zap.Logger) *BreakerCatalog {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &BreakerCatalog{next: next, cb: cb}
}

func (b *BreakerCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return v.(*domain.Product), nil
}

func (b *BreakerCatalog) GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.GetProducts(ctx, ids)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return v.(map[string]*domain.Product), nil
}

func (b *BreakerCatalog) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.ListProducts(ctx, category)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return v.([]*domain.Product), nil
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: catalog: %w", domain.ErrStorageUnavailable, err)
	}
	return err
}
