package subscription

import (
	"context"
	"fmt"
	"testing"

	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	subs    map[string]structures.Subscription
	upserts int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{subs: map[string]structures.Subscription{}}
}

func (f *fakeRegistry) Find(ctx context.Context, broadcasterID string) (structures.Subscription, error) {
	sub, ok := f.subs[broadcasterID]
	if !ok {
		return structures.Subscription{}, mongo.ErrNoDocuments
	}
	return sub, nil
}

func (f *fakeRegistry) Upsert(ctx context.Context, sub structures.Subscription) error {
	f.upserts++
	f.subs[sub.BroadcasterID] = sub
	return nil
}

func (f *fakeRegistry) DeleteByRemoteID(ctx context.Context, subscriptionID string) error {
	for id, sub := range f.subs {
		if sub.SubscriptionID == subscriptionID {
			delete(f.subs, id)
		}
	}
	return nil
}

func (f *fakeRegistry) DeleteByBroadcaster(ctx context.Context, broadcasterID string) error {
	delete(f.subs, broadcasterID)
	return nil
}

type fakeEventSub struct {
	subscribes     int
	unsubscribes   int
	subscribeErr   error
	unsubscribeErr error
	lastSecret     string
}

func (f *fakeEventSub) Subscribe(ctx context.Context, broadcasterID string, secret string) (string, error) {
	f.subscribes++
	f.lastSecret = secret
	if f.subscribeErr != nil {
		return "", f.subscribeErr
	}
	return fmt.Sprintf("remote-%d", f.subscribes), nil
}

func (f *fakeEventSub) Unsubscribe(ctx context.Context, subscriptionID string) error {
	f.unsubscribes++
	return f.unsubscribeErr
}

var offered = []structures.Reward{
	{ID: "reward-a", Title: "Speak, Friend", Cost: 500},
	{ID: "reward-b", Title: "Second Breakfast", Cost: 1000},
}

func TestToggleRejectsUnknownReward(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-x", offered)
	assert.ErrorIs(t, err, ErrInvalidReward)
	assert.Empty(t, registry.subs)
	assert.Zero(t, remote.subscribes)
}

func TestToggleFirstBindSubscribesOnce(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	result, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	assert.True(t, result.Connected)
	assert.Equal(t, "Speak, Friend", result.Title)

	sub := registry.subs["123"]
	assert.Equal(t, []string{"reward-a"}, sub.RewardIDs)
	assert.Equal(t, "remote-1", sub.SubscriptionID)
	assert.Equal(t, structures.SubscriptionStateConfirmed, sub.State)
	assert.Len(t, sub.Secret, 32)
	assert.Equal(t, sub.Secret, remote.lastSecret)
	assert.Equal(t, 1, remote.subscribes)
}

func TestToggleTwiceReturnsToUnbound(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)

	result, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	assert.False(t, result.Connected)

	assert.Empty(t, registry.subs)
	assert.Equal(t, 1, remote.subscribes)
	assert.Equal(t, 1, remote.unsubscribes)
}

func TestToggleSecondRewardReusesSubscription(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	_, err = engine.Toggle(context.Background(), "123", "reward-b", offered)
	require.NoError(t, err)

	assert.Equal(t, []string{"reward-a", "reward-b"}, registry.subs["123"].RewardIDs)
	assert.Equal(t, 1, remote.subscribes)
	assert.Zero(t, remote.unsubscribes)
}

func TestToggleUnbindOneOfTwoKeepsSubscription(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	_, err = engine.Toggle(context.Background(), "123", "reward-b", offered)
	require.NoError(t, err)

	result, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	assert.False(t, result.Connected)

	assert.Equal(t, []string{"reward-b"}, registry.subs["123"].RewardIDs)
	assert.Equal(t, 1, remote.subscribes)
	assert.Zero(t, remote.unsubscribes)
}

func TestToggleSubscribeFailureRollsBackRecord(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{subscribeErr: fmt.Errorf("boom")}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	assert.ErrorIs(t, err, ErrRemoteSubscription)
	assert.Empty(t, registry.subs)
}

func TestToggleUnsubscribeFailureKeepsRecord(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)

	remote.unsubscribeErr = fmt.Errorf("boom")
	_, err = engine.Toggle(context.Background(), "123", "reward-a", offered)
	assert.ErrorIs(t, err, ErrRemoteSubscription)

	assert.Equal(t, []string{"reward-a"}, registry.subs["123"].RewardIDs)
}

func TestToggleRegeneratesSecretAcrossRebinds(t *testing.T) {
	registry := newFakeRegistry()
	remote := &fakeEventSub{}
	engine := NewEngine(registry, remote, 32)

	_, err := engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	first := registry.subs["123"].Secret

	_, err = engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)

	_, err = engine.Toggle(context.Background(), "123", "reward-a", offered)
	require.NoError(t, err)
	second := registry.subs["123"].Secret

	assert.NotEqual(t, first, second)
}
