package structures

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is an OAuth access/refresh token pair for a single Twitch identity.
// ExpiresAt is always the true expiry of AccessToken at the time of write.
type Token struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AccessToken  string             `json:"-" bson:"access_token"`
	RefreshToken string             `json:"-" bson:"refresh_token"`
	Scopes       []string           `json:"scopes" bson:"scopes"`
	ExpiresAt    time.Time          `json:"expires_at" bson:"expires_at"`
	OwnerID      string             `json:"owner_id" bson:"owner_id"`
	Username     string             `json:"username" bson:"username"`
}

const (
	SubscriptionStateProvisional = "provisional"
	SubscriptionStateConfirmed   = "confirmed"
)

// Subscription records which rewards are wired to the webhook for one
// broadcaster. State is provisional between the local write and the remote
// subscribe call completing.
type Subscription struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BroadcasterID  string             `json:"broadcaster_id" bson:"broadcaster_id"`
	RewardIDs      []string           `json:"reward_ids" bson:"reward_ids"`
	Secret         string             `json:"-" bson:"secret"`
	SubscriptionID string             `json:"subscription_id" bson:"subscription_id,omitempty"`
	State          string             `json:"state" bson:"state"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

func (s Subscription) HasReward(rewardID string) bool {
	for _, id := range s.RewardIDs {
		if id == rewardID {
			return true
		}
	}
	return false
}

type Quote struct {
	ID         primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	QuoteID    int                `json:"id" bson:"id"`
	Quote      string             `json:"quote" bson:"quote"`
	Speaker    string             `json:"speaker" bson:"speaker"`
	Source     string             `json:"source" bson:"source"`
	SourceType string             `json:"source_type" bson:"source_type"`
}

// Reward is fetched live from helix and never persisted.
type Reward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Cost   int    `json:"cost"`
}
