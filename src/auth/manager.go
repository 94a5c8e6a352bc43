package auth

import (
	"context"

	"github.com/troydota/lotr-quotes/src/structures"
)

// ChatScope marks the bot identity that is allowed to write to chat.
const ChatScope = "chat:edit"

// TokenReader looks up stored tokens by identity or capability.
type TokenReader interface {
	Get(ctx context.Context, ownerID string) (structures.Token, error)
	GetByScope(ctx context.Context, scope string) (structures.Token, error)
}

// Manager resolves ready-to-use access tokens, refreshing stale ones on the
// way out.
type Manager struct {
	store     TokenReader
	refresher *Refresher
}

func NewManager(store TokenReader, refresher *Refresher) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
	}
}

// UserToken returns a fresh access token for the broadcaster.
func (m *Manager) UserToken(ctx context.Context, broadcasterID string) (string, error) {
	token, err := m.store.Get(ctx, broadcasterID)
	if err != nil {
		return "", err
	}

	token, err = m.refresher.EnsureFresh(ctx, token)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// ChatToken returns a fresh access token and username for the chat-capable
// identity.
func (m *Manager) ChatToken(ctx context.Context) (string, string, error) {
	token, err := m.store.GetByScope(ctx, ChatScope)
	if err != nil {
		return "", "", err
	}

	token, err = m.refresher.EnsureFresh(ctx, token)
	if err != nil {
		return "", "", err
	}

	return token.AccessToken, token.Username, nil
}
