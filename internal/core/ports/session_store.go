package ports

import (
	"context"
	"time"
)

// SessionStore tracks issued session tokens by their nonce (jti) so tokens
// stay revocable and expire server-side independently of their signature.
type SessionStore interface {
	// Save records jti -> identity with the given lifetime.
	Save(ctx context.Context, jti, identity string, ttl time.Duration) error
	// Get returns the identity recorded for jti, or domain.ErrUnauthorized
	// if the session is unknown, revoked, or expired.
	Get(ctx context.Context, jti string) (string, error)
	// Revoke removes the session. Revoking an unknown jti is not an error.
	Revoke(ctx context.Context, jti string) error
}
