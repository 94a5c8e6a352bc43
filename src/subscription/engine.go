package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/troydota/lotr-quotes/src/mongo"
	"github.com/troydota/lotr-quotes/src/structures"
	"github.com/troydota/lotr-quotes/src/utils"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidReward rejects a toggle for a reward the broadcaster does not
	// currently offer.
	ErrInvalidReward = fmt.Errorf("invalid reward selected")
	// ErrRemoteSubscription surfaces a failed remote subscribe/unsubscribe
	// call. The toggle it aborted left no half-bound record behind.
	ErrRemoteSubscription = fmt.Errorf("remote subscription call failed")
)

// Registry is the persistence surface the engine drives.
type Registry interface {
	Find(ctx context.Context, broadcasterID string) (structures.Subscription, error)
	Upsert(ctx context.Context, sub structures.Subscription) error
	DeleteByRemoteID(ctx context.Context, subscriptionID string) error
	DeleteByBroadcaster(ctx context.Context, broadcasterID string) error
}

// EventSub is the remote webhook subscription surface.
type EventSub interface {
	Subscribe(ctx context.Context, broadcasterID string, secret string) (string, error)
	Unsubscribe(ctx context.Context, subscriptionID string) error
}

// Engine decides, per toggle, whether to subscribe, bind, unbind or
// unsubscribe, keeping the local binding record and the remote subscription
// in step. There is at most one remote subscription per broadcaster.
type Engine struct {
	store        Registry
	eventsub     EventSub
	secretLength int
}

func NewEngine(store Registry, eventsub EventSub, secretLength int) *Engine {
	return &Engine{
		store:        store,
		eventsub:     eventsub,
		secretLength: secretLength,
	}
}

// Result reports the outcome of a toggle for the caller's banner.
type Result struct {
	Connected bool
	RewardID  string
	Title     string
}

func (e *Engine) Toggle(ctx context.Context, broadcasterID string, rewardID string, offered []structures.Reward) (Result, error) {
	title := ""
	valid := false
	for _, reward := range offered {
		if reward.ID == rewardID {
			title = reward.Title
			valid = true
			break
		}
	}
	if !valid {
		return Result{}, ErrInvalidReward
	}

	result := Result{RewardID: rewardID, Title: title}

	sub, err := e.store.Find(ctx, broadcasterID)
	if err == mongo.ErrNoDocuments {
		return e.bindFirst(ctx, broadcasterID, rewardID, result)
	}
	if err != nil {
		return Result{}, err
	}

	switch {
	case !sub.HasReward(rewardID):
		sub.RewardIDs = append(sub.RewardIDs, rewardID)
		if err := e.store.Upsert(ctx, sub); err != nil {
			return Result{}, err
		}
		result.Connected = true

	case len(sub.RewardIDs) > 1:
		kept := make([]string, 0, len(sub.RewardIDs)-1)
		for _, id := range sub.RewardIDs {
			if id != rewardID {
				kept = append(kept, id)
			}
		}
		sub.RewardIDs = kept
		if err := e.store.Upsert(ctx, sub); err != nil {
			return Result{}, err
		}

	default:
		// last bound reward, tear the whole subscription down
		if err := e.eventsub.Unsubscribe(ctx, sub.SubscriptionID); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrRemoteSubscription, err)
		}
		if err := e.store.DeleteByRemoteID(ctx, sub.SubscriptionID); err != nil {
			return Result{}, err
		}
	}

	return result, nil
}

func (e *Engine) bindFirst(ctx context.Context, broadcasterID string, rewardID string, result Result) (Result, error) {
	secret, err := utils.GenerateRandomString(e.secretLength)
	if err != nil {
		return Result{}, err
	}

	sub := structures.Subscription{
		BroadcasterID: broadcasterID,
		RewardIDs:     []string{rewardID},
		Secret:        secret,
		State:         structures.SubscriptionStateProvisional,
		CreatedAt:     time.Now(),
	}

	// Written before the remote subscribe, so a webhook delivery racing the
	// subscribe response already finds the secret and the bound reward.
	if err := e.store.Upsert(ctx, sub); err != nil {
		return Result{}, err
	}

	remoteID, err := e.eventsub.Subscribe(ctx, broadcasterID, secret)
	if err != nil {
		if derr := e.store.DeleteByBroadcaster(ctx, broadcasterID); derr != nil {
			logrus.Errorf("failed to roll back provisional subscription, broadcaster=%s, err=%v", broadcasterID, derr)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrRemoteSubscription, err)
	}

	sub.SubscriptionID = remoteID
	sub.State = structures.SubscriptionStateConfirmed
	if err := e.store.Upsert(ctx, sub); err != nil {
		return Result{}, err
	}

	result.Connected = true
	return result, nil
}
