package mongo

import (
	"context"

	"github.com/troydota/lotr-quotes/src/configure"
	"github.com/troydota/lotr-quotes/src/instance"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionNameTokens        = "auth-tokens"
	CollectionNameSubscriptions = "subscriptions"
	CollectionNameQuotes        = "lotr-quotes"
)

var ErrNoDocuments = mongo.ErrNoDocuments

func Setup(ctx context.Context, cfg *configure.Config) (instance.Mongo, error) {
	clientOptions := options.Client().ApplyURI(cfg.Mongo.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	database := client.Database(cfg.Mongo.Database)

	// owner_id and broadcaster_id are natural keys, enforced at write time
	_, err = database.Collection(CollectionNameTokens).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"owner_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"scopes": 1}},
	})
	if err != nil {
		return nil, err
	}

	_, err = database.Collection(CollectionNameSubscriptions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"broadcaster_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"subscription_id": 1}},
	})
	if err != nil {
		return nil, err
	}

	_, err = database.Collection(CollectionNameQuotes).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"id": 1}},
	})
	if err != nil {
		return nil, err
	}

	return instance.WrapMongo(client, database), nil
}
