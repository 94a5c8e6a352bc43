package instance

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type Mongo interface {
	Collection(name string) *mongo.Collection
	Ping(ctx context.Context) error
	RawDatabase() *mongo.Database
}

type mongoInst struct {
	client *mongo.Client
	db     *mongo.Database
}

func WrapMongo(client *mongo.Client, db *mongo.Database) Mongo {
	return &mongoInst{
		client: client,
		db:     db,
	}
}

func (m *mongoInst) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *mongoInst) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *mongoInst) RawDatabase() *mongo.Database {
	return m.db
}
