package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTransactor struct {
	client *mongo.Client
}

// NewTransactor needs a replica set or sharded cluster; standalone servers
// reject multi-document transactions.
func NewTransactor(db *mongo.Database) Transactor {
	return &mongoTransactor{client: db.Client()}
}

func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return storageError("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
