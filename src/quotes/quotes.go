package quotes

import (
	"context"
	"math/rand"
	"time"

	"github.com/troydota/lotr-quotes/src/instance"
	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"

	"go.mongodb.org/mongo-driver/bson"
)

// Getter looks a quote up by its dense integer id.
type Getter interface {
	ByID(ctx context.Context, id int) (structures.Quote, error)
}

// Store reads quotes from the lotr-quotes collection.
type Store struct {
	mongo instance.Mongo
}

func NewStore(mongoInst instance.Mongo) *Store {
	return &Store{mongo: mongoInst}
}

func (s *Store) ByID(ctx context.Context, id int) (structures.Quote, error) {
	quote := structures.Quote{}

	res := s.mongo.Collection(mongo.CollectionNameQuotes).FindOne(ctx, bson.M{
		"id": id,
	})
	err := res.Err()
	if err == nil {
		err = res.Decode(&quote)
	}

	return quote, err
}

// Source picks quotes uniformly over the configured id range. The pick is
// only exactly uniform over stored quotes when the corpus densely populates
// the range; a gap at the drawn id yields no quote rather than a retry.
type Source struct {
	store Getter
	minID int
	maxID int
}

func NewSource(store Getter, minID int, maxID int) *Source {
	rand.Seed(time.Now().UnixNano())

	return &Source{
		store: store,
		minID: minID,
		maxID: maxID,
	}
}

func (s *Source) Random(ctx context.Context) (structures.Quote, bool, error) {
	id := s.minID + rand.Intn(s.maxID-s.minID+1)

	quote, err := s.store.ByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return structures.Quote{}, false, nil
	}
	if err != nil {
		return structures.Quote{}, false, err
	}

	return quote, true, nil
}
