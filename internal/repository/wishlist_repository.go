package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type wishlistRepository struct {
	collection *mongo.Collection
}

func NewWishlistRepository(db *mongo.Database) WishlistRepository {
	return &wishlistRepository{
		collection: db.Collection(wishlistsCollection),
	}
}

// GetWishlist returns an empty wishlist for users who never saved anything.
func (m *wishlistRepository) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wishlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.Wishlist{UserID: userID, ProductIDs: []string{}}, nil
		}
		return nil, storageError("failed to get wishlist", err)
	}
	if wishlist.ProductIDs == nil {
		wishlist.ProductIDs = []string{}
	}

	return &wishlist, nil
}

func (m *wishlistRepository) AddProduct(ctx context.Context, userID string, productID string) error {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$addToSet":    bson.M{"product_ids": productID},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race; the document exists now.
		_, err = m.collection.UpdateOne(ctx, filter, update)
	}
	if err != nil {
		return storageError("failed to add wishlist product", err)
	}
	return nil
}

func (m *wishlistRepository) RemoveProduct(ctx context.Context, userID string, productID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{"product_ids": productID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return storageError("failed to remove wishlist product", err)
	}
	return nil
}

func (m *wishlistRepository) createIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create wishlist indexes: %w", err)
	}
	return nil
}
