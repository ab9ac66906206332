package repository

import (
	"context"
	"fmt"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		collection: db.Collection(notificationsCollection),
	}
}

// CreateNotification stores n once per EventID. Redelivered events are
// dropped silently.
func (r *notificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return storageError("insert notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, storageError("query notifications", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]*domain.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, storageError("decode notifications", err)
	}
	return notifications, nil
}

// MarkRead only touches notifications owned by userID.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	filter := bson.M{"_id": id, "user_id": userID}
	update := bson.M{"$set": bson.M{"read": true}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("mark notification read", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
