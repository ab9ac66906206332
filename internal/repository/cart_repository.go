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

type cartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *cartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, storageError("failed to get cart", err)
	}

	return &cart, nil
}

func (m *cartRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	return m.addItem(ctx, userID, item, true)
}

func (m *cartRepository) addItem(ctx context.Context, userID string, item domain.CartItem, retry bool) error {
	now := time.Now().UTC()

	// Existing line: increment in place so concurrent adds are never lost.
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$inc": bson.M{"items.$[elem].quantity": item.Quantity},
		"$set": bson.M{"updated_at": now},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": item.ProductID},
		},
	})
	result, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID, "items.product_id": item.ProductID}, update, arrayFilters)
	if err != nil {
		return storageError("failed to increment item", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// New line, creating the cart on first use.
	item.AddedAt = now
	filter["items.product_id"] = bson.M{"$ne": item.ProductID}
	update = bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err = m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A concurrent add created the cart or the line first.
		if mongo.IsDuplicateKeyError(err) && retry {
			return m.addItem(ctx, userID, item, false)
		}
		return storageError("failed to add new item", err)
	}

	return nil
}

func (m *cartRepository) UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return storageError("failed to update item quantity", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// RemoveItem is a no-op when the cart or the line does not exist.
func (m *cartRepository) RemoveItem(ctx context.Context, userID string, productID string) error {
	filter := bson.M{"user_id": userID, "items.product_id": productID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return storageError("failed to remove item", err)
	}
	return nil
}

// ClearCart empties the cart but keeps the document and its created_at.
func (m *cartRepository) ClearCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":      bson.A{},
			"updated_at": time.Now().UTC(),
		},
	}

	if _, err := m.collection.UpdateOne(ctx, filter, update); err != nil {
		return storageError("failed to clear cart", err)
	}
	return nil
}

func (m *cartRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}

	return nil
}

func storageError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, msg, err)
}
