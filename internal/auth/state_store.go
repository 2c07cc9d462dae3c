package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"authgate/internal/cache"
)

const (
	stateKeyPrefix = "oauth_state:"
	// StateTTL bounds how long a third-party sign-in handshake may take.
	StateTTL = 10 * time.Minute
)

// StateStoreInterface defines single-use OAuth state nonce operations.
type StateStoreInterface interface {
	Issue(ctx context.Context, callbackURL string) (string, error)
	Consume(ctx context.Context, state string) (callbackURL string, ok bool)
}

// StateStore persists OAuth state nonces in redis. A nonce is valid for one
// callback only; consuming it removes it, so a replayed state is rejected.
type StateStore struct {
	cache *cache.Client
}

var _ StateStoreInterface = (*StateStore)(nil)

// NewStateStore creates a state store on the shared redis client.
func NewStateStore(cache *cache.Client) *StateStore {
	return &StateStore{cache: cache}
}

// Issue mints a nonce and stores the post-login callback URL under it.
func (s *StateStore) Issue(ctx context.Context, callbackURL string) (string, error) {
	state := uuid.New().String()
	if err := s.cache.Set(ctx, stateKeyPrefix+state, []byte(callbackURL), StateTTL); err != nil {
		return "", err
	}
	return state, nil
}

// Consume validates and invalidates a nonce, returning the callback URL it was
// issued for. A missing, expired or already-consumed nonce yields ok=false.
func (s *StateStore) Consume(ctx context.Context, state string) (string, bool) {
	if state == "" {
		return "", false
	}
	data, err := s.cache.GetDel(ctx, stateKeyPrefix+state)
	if err != nil || data == nil {
		return "", false
	}
	return string(data), true
}
