package subscription

import (
	"context"

	"github.com/troydota/lotr-quotes/src/instance"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists reward bindings in the subscriptions collection, one
// document per broadcaster.
type Store struct {
	mongo instance.Mongo
}

func NewStore(mongoInst instance.Mongo) *Store {
	return &Store{mongo: mongoInst}
}

func (s *Store) Find(ctx context.Context, broadcasterID string) (structures.Subscription, error) {
	sub := structures.Subscription{}

	res := s.mongo.Collection(mongo.CollectionNameSubscriptions).FindOne(ctx, bson.M{
		"broadcaster_id": broadcasterID,
	})
	err := res.Err()
	if err == nil {
		err = res.Decode(&sub)
	}

	return sub, err
}

// Upsert writes the binding keyed on broadcaster_id.
func (s *Store) Upsert(ctx context.Context, sub structures.Subscription) error {
	_, err := s.mongo.Collection(mongo.CollectionNameSubscriptions).ReplaceOne(ctx, bson.M{
		"broadcaster_id": sub.BroadcasterID,
	}, sub, options.Replace().SetUpsert(true))

	return err
}

func (s *Store) DeleteByRemoteID(ctx context.Context, subscriptionID string) error {
	_, err := s.mongo.Collection(mongo.CollectionNameSubscriptions).DeleteOne(ctx, bson.M{
		"subscription_id": subscriptionID,
	})

	return err
}

// DeleteByBroadcaster removes a binding that never received a remote id. Only
// the subscribe-failure compensation path uses it.
func (s *Store) DeleteByBroadcaster(ctx context.Context, broadcasterID string) error {
	_, err := s.mongo.Collection(mongo.CollectionNameSubscriptions).DeleteOne(ctx, bson.M{
		"broadcaster_id": broadcasterID,
	})

	return err
}
