package quotes

import (
	"context"
	"testing"

	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	corpus map[int]structures.Quote
}

func (f *fakeGetter) ByID(ctx context.Context, id int) (structures.Quote, error) {
	quote, ok := f.corpus[id]
	if !ok {
		return structures.Quote{}, mongo.ErrNoDocuments
	}
	return quote, nil
}

func denseCorpus(ids ...int) *fakeGetter {
	corpus := map[int]structures.Quote{}
	for _, id := range ids {
		corpus[id] = structures.Quote{QuoteID: id, Quote: "quote", Speaker: "speaker"}
	}
	return &fakeGetter{corpus: corpus}
}

func TestRandomVisitsWholeDenseRange(t *testing.T) {
	source := NewSource(denseCorpus(1, 2, 3, 4, 5), 1, 5)

	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		quote, ok, err := source.Random(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		require.GreaterOrEqual(t, quote.QuoteID, 1)
		require.LessOrEqual(t, quote.QuoteID, 5)
		seen[quote.QuoteID] = true
	}

	assert.Len(t, seen, 5)
}

func TestRandomReportsGapWithoutRetry(t *testing.T) {
	source := NewSource(denseCorpus(1, 3), 1, 3)

	misses := 0
	for i := 0; i < 200; i++ {
		quote, ok, err := source.Random(context.Background())
		require.NoError(t, err)
		if !ok {
			misses++
			continue
		}
		assert.Contains(t, []int{1, 3}, quote.QuoteID)
	}

	// id 2 is drawn about a third of the time and must not be papered over
	assert.Greater(t, misses, 0)
}
