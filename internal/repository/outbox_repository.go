package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type outboxRecord struct {
	ID          string            `bson:"_id"`
	Event       domain.OrderEvent `bson:"event"`
	CreatedAt   time.Time         `bson:"created_at"`
	PublishedAt *time.Time        `bson:"published_at"`
}

type outboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &outboxRepository{
		collection: db.Collection(outboxCollection),
	}
}

// Enqueue joins the caller's transaction when ctx carries one.
func (r *outboxRepository) Enqueue(ctx context.Context, event domain.OrderEvent) error {
	record := outboxRecord{
		ID:        event.ID,
		Event:     event,
		CreatedAt: event.OccurredAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return storageError("insert outbox event", err)
	}
	return nil
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]domain.OrderEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"published_at": nil}, opts)
	if err != nil {
		return nil, storageError("query outbox", err)
	}
	defer cursor.Close(ctx)

	var records []outboxRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, storageError("decode outbox", err)
	}

	events := make([]domain.OrderEvent, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.Event)
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	update := bson.M{"$set": bson.M{"published_at": time.Now().UTC()}}
	if _, err := r.collection.UpdateByID(ctx, eventID, update); err != nil {
		return storageError("mark outbox event published", err)
	}
	return nil
}

func (r *outboxRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "published_at", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}
