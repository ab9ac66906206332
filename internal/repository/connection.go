package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	cartsCollection         = "carts"
	wishlistsCollection     = "wishlists"
	ordersCollection        = "orders"
	notificationsCollection = "notifications"
	outboxCollection        = "outbox"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the indexes every repository relies on. The unique
// ones carry invariants: one cart and one wishlist per user, one order per
// cart snapshot, one notification per event.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []func(context.Context) error{
		(&cartRepository{collection: db.Collection(cartsCollection)}).createIndexes,
		(&wishlistRepository{collection: db.Collection(wishlistsCollection)}).createIndexes,
		(&orderRepository{collection: db.Collection(ordersCollection)}).createIndexes,
		(&notificationRepository{collection: db.Collection(notificationsCollection)}).createIndexes,
		(&outboxRepository{collection: db.Collection(outboxCollection)}).createIndexes,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
