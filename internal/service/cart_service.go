package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davex-ai/SwiftBites/internal/cache"
	"github.com/davex-ai/SwiftBites/internal/catalog"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/logger"
	"github.com/davex-ai/SwiftBites/internal/pricing"
	"github.com/davex-ai/SwiftBites/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Catalog
	pricing *pricing.Calculator
	logger  *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
	fills   sync.WaitGroup
}

// CartSummary backs the cart page: live lines plus their totals.
type CartSummary struct {
	Items  []domain.CartLine `json:"items"`
	Totals pricing.Summary   `json:"totals"`
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog catalog.Catalog, calc *pricing.Calculator, logger *zap.Logger) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		pricing: calc,
		logger:  logger,
	}
}

// GetCart returns the raw cart document. A user without a cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithContext(ctx, s.logger).Warn("cart cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		// The version must be read before the store so a write that lands
		// in between is seen by Fill.
		version, verr := s.cache.Version(ctx, userID)

		cart, err = s.loadCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		if verr != nil {
			return cart, nil
		}

		s.fills.Add(1)
		go s.fill(userID, version, cart)

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) fill(userID string, version int64, cart *domain.Cart) {
	defer s.fills.Done()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stored, err := s.cache.Fill(ctx, userID, version, cart)
	if err != nil {
		s.logger.Warn("cart cache fill failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !stored {
		s.logger.Debug("stale cart fill skipped", zap.String("user_id", userID))
	}
}

// Wait blocks until background cache fills have finished.
func (s *CartService) Wait() {
	s.fills.Wait()
}

func (s *CartService) AddItem(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, fmt.Errorf("%w: %s", domain.ErrOutOfStock, productID)
	}

	if err := s.repo.AddItem(ctx, id.UserID, domain.CartItem{ProductID: productID, Quantity: quantity}); err != nil {
		logger.WithContext(ctx, s.logger).Error("repo add item failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(ctx, id.UserID)
	return s.freshLines(ctx, id.UserID)
}

func (s *CartService) UpdateQuantity(ctx context.Context, id domain.Identity, productID string, quantity int) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	if err := s.repo.UpdateItemQuantity(ctx, id.UserID, productID, quantity); err != nil {
		if !errors.Is(err, domain.ErrItemNotFound) {
			logger.WithContext(ctx, s.logger).Error("repo update item quantity failed", zap.String("user_id", id.UserID), zap.Error(err))
		}
		return nil, err
	}

	s.invalidateCache(ctx, id.UserID)
	return s.freshLines(ctx, id.UserID)
}

func (s *CartService) RemoveItem(ctx context.Context, id domain.Identity, productID string) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.repo.RemoveItem(ctx, id.UserID, productID); err != nil {
		logger.WithContext(ctx, s.logger).Error("repo remove item failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, err
	}

	s.invalidateCache(ctx, id.UserID)
	return s.freshLines(ctx, id.UserID)
}

func (s *CartService) Clear(ctx context.Context, id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrUnauthenticated
	}

	if err := s.repo.ClearCart(ctx, id.UserID); err != nil {
		logger.WithContext(ctx, s.logger).Error("repo clear cart failed", zap.String("user_id", id.UserID), zap.Error(err))
		return err
	}

	s.invalidateCache(ctx, id.UserID)
	return nil
}

// List resolves the cart against the live catalog.
func (s *CartService) List(ctx context.Context, id domain.Identity) ([]domain.CartLine, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	cart, err := s.GetCart(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return s.resolveLines(ctx, cart)
}

func (s *CartService) Summary(ctx context.Context, id domain.Identity) (*CartSummary, error) {
	lines, err := s.List(ctx, id)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.pricing.Calculate(pricing.FromCartLines(lines))
	if err != nil {
		return nil, err
	}
	return &CartSummary{Items: lines, Totals: breakdown.Rounded()}, nil
}

// freshLines reads past the cache so a mutation returns what was just written.
func (s *CartService) freshLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveLines(ctx, cart)
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		now := time.Now().UTC()
		return &domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// resolveLines keeps cart order and skips products the catalog no longer has.
func (s *CartService) resolveLines(ctx context.Context, cart *domain.Cart) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, cart.ItemCount())
	if cart.IsEmpty() {
		return lines, nil
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			logger.WithContext(ctx, s.logger).Warn("cart references unknown product",
				zap.String("user_id", cart.UserID), zap.String("product_id", item.ProductID))
			continue
		}
		lines = append(lines, domain.CartLine{Product: *product, Quantity: item.Quantity})
	}
	return lines, nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	invalidateCart(ctx, s.cache, s.logger, userID)
}
