package service

import (
	"context"

	"github.com/davex-ai/SwiftBites/internal/catalog"
	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/davex-ai/SwiftBites/internal/logger"
	"github.com/davex-ai/SwiftBites/internal/repository"
	"go.uber.org/zap"
)

type WishlistService struct {
	repo    repository.WishlistRepository
	catalog catalog.Catalog
	logger  *zap.Logger
}

func NewWishlistService(repo repository.WishlistRepository, catalog catalog.Catalog, logger *zap.Logger) *WishlistService {
	return &WishlistService{repo: repo, catalog: catalog, logger: logger}
}

// Add is idempotent. Only products the catalog knows can be saved.
func (s *WishlistService) Add(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	if err := s.repo.AddProduct(ctx, id.UserID, productID); err != nil {
		logger.WithContext(ctx, s.logger).Error("repo add wishlist product failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, err
	}
	return s.List(ctx, id)
}

func (s *WishlistService) Remove(ctx context.Context, id domain.Identity, productID string) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.repo.RemoveProduct(ctx, id.UserID, productID); err != nil {
		logger.WithContext(ctx, s.logger).Error("repo remove wishlist product failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, err
	}
	return s.List(ctx, id)
}

func (s *WishlistService) List(ctx context.Context, id domain.Identity) ([]domain.Product, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	wishlist, err := s.repo.GetWishlist(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(wishlist.ProductIDs))
	if len(wishlist.ProductIDs) == 0 {
		return products, nil
	}

	found, err := s.catalog.GetProducts(ctx, wishlist.ProductIDs)
	if err != nil {
		return nil, err
	}
	for _, productID := range wishlist.ProductIDs {
		p, ok := found[productID]
		if !ok {
			logger.WithContext(ctx, s.logger).Warn("wishlist references unknown product",
				zap.String("user_id", id.UserID), zap.String("product_id", productID))
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}
