package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{
		collection: db.Collection(ordersCollection),
	}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	// $push on a null field fails, so history must start as an array.
	if order.StatusHistory == nil {
		order.StatusHistory = []domain.StatusChange{}
	}
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateOrder
		}
		return storageError("insert order", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, storageError("query order by id", err)
	}
	return &order, nil
}

func (r *orderRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *orderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{})
}

// find returns matching orders, newest first.
func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageError("query orders", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, storageError("decode orders", err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, change domain.StatusChange) error {
	filter := bson.M{"_id": id, "status": change.From}
	update := bson.M{
		"$set": bson.M{
			"status":     change.To,
			"updated_at": change.ChangedAt,
		},
		"$push": bson.M{"status_history": change},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("update order status", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Either the order is gone or someone moved it first.
	if _, err := r.GetOrderByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: order %s is no longer %s", domain.ErrInvalidTransition, id, change.From)
}

func (r *orderRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "cart_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
