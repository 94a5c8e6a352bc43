package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/troydota/lotr-quotes/src/structures"
	"github.com/troydota/lotr-quotes/src/twitchapi"
)

var ErrTokenExchange = fmt.Errorf("token exchange failed")

// ExchangeFunc trades a refresh token for new credentials at the remote token
// endpoint.
type ExchangeFunc func(ctx context.Context, refreshToken string) (twitchapi.Credentials, error)

// TokenWriter persists a refreshed token.
type TokenWriter interface {
	Put(ctx context.Context, token structures.Token) error
}

// Refresher hands out access tokens, exchanging the refresh token first when
// the stored one is expired. A refreshed token is persisted before it is
// returned, so callers never hold a token the store does not.
type Refresher struct {
	store    TokenWriter
	exchange ExchangeFunc
	now      func() time.Time
}

func NewRefresher(store TokenWriter, exchange ExchangeFunc) *Refresher {
	return &Refresher{
		store:    store,
		exchange: exchange,
		now:      time.Now,
	}
}

func (r *Refresher) EnsureFresh(ctx context.Context, token structures.Token) (structures.Token, error) {
	if r.now().UTC().Before(token.ExpiresAt) {
		return token, nil
	}

	creds, err := r.exchange(ctx, token.RefreshToken)
	if err != nil {
		return structures.Token{}, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	token.AccessToken = creds.AccessToken
	if creds.RefreshToken != "" {
		// twitch rotates refresh tokens on use
		token.RefreshToken = creds.RefreshToken
	}
	if len(creds.Scopes) != 0 {
		token.Scopes = creds.Scopes
	}
	token.ExpiresAt = r.now().UTC().Add(time.Duration(creds.ExpiresIn) * time.Second)

	if err := r.store.Put(ctx, token); err != nil {
		return structures.Token{}, err
	}

	return token, nil
}
