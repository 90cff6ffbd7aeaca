package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// oauthStateTTL bounds how long a partially-completed OAuth redirect can wait
// for the provider callback. Matches the pending-role cookie lifetime.
const oauthStateTTL = 5 * time.Minute

// StateStore persists short-lived OAuth CSRF state across the redirect
// boundary. Entries expire on their own; Consume removes an entry so a state
// can only be redeemed once.
type StateStore interface {
	Put(ctx context.Context, state *OAuthState) error
	Consume(ctx context.Context, state string) (*OAuthState, error)
}

// redisStateStore keeps OAuth states in Redis with a hard TTL.
type redisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a Redis-backed OAuth state store.
func NewRedisStateStore(client *redis.Client) StateStore {
	return &redisStateStore{client: client}
}

func stateKey(state string) string {
	return "oauth:state:" + state
}

func (s *redisStateStore) Put(ctx context.Context, state *OAuthState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(state.State), payload, oauthStateTTL).Err()
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	key := stateKey(state)
	payload, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOAuthStateInvalid
		}
		return nil, err
	}

	var out OAuthState
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, ErrOAuthStateInvalid.WithCause(err)
	}
	return &out, nil
}
