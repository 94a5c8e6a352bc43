package auth

import (
	"context"

	"github.com/troydota/lotr-quotes/src/instance"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists OAuth tokens in the auth-tokens collection, one document per
// Twitch identity.
type Store struct {
	mongo instance.Mongo
}

func NewStore(mongoInst instance.Mongo) *Store {
	return &Store{mongo: mongoInst}
}

func (s *Store) Get(ctx context.Context, ownerID string) (structures.Token, error) {
	token := structures.Token{}

	res := s.mongo.Collection(mongo.CollectionNameTokens).FindOne(ctx, bson.M{
		"owner_id": ownerID,
	})
	err := res.Err()
	if err == nil {
		err = res.Decode(&token)
	}

	return token, err
}

// GetByScope finds a token whose scope set contains the given scope. Used to
// locate the chat-capable bot identity.
func (s *Store) GetByScope(ctx context.Context, scope string) (structures.Token, error) {
	token := structures.Token{}

	res := s.mongo.Collection(mongo.CollectionNameTokens).FindOne(ctx, bson.M{
		"scopes": scope,
	})
	err := res.Err()
	if err == nil {
		err = res.Decode(&token)
	}

	return token, err
}

// Put upserts the token keyed on owner_id.
func (s *Store) Put(ctx context.Context, token structures.Token) error {
	_, err := s.mongo.Collection(mongo.CollectionNameTokens).ReplaceOne(ctx, bson.M{
		"owner_id": token.OwnerID,
	}, token, options.Replace().SetUpsert(true))

	return err
}
