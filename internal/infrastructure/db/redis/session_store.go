package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passvault/vault-service/internal/core/domain"
)

// SessionStore keeps issued session nonces in Redis so tokens expire
// server-side and can be revoked before their signature lapses.
// Key format: session:<jti> -> identity, TTL = token lifetime.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, jti, identity string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(jti), identity, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, jti string) (string, error) {
	identity, err := s.client.Get(ctx, s.key(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return identity, nil
}

func (s *SessionStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, s.key(jti)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(jti string) string {
	return "session:" + jti
}
