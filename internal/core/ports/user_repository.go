package ports

import (
	"context"
	"encoding/json"

	"github.com/passvault/vault-service/internal/core/domain"
)

// UserRepository defines the persistence contract for vault owners.
//
// Create must rely on a storage-level unique constraint on email and return
// domain.ErrUserExists on violation, so concurrent registrations racing on
// the same email are serialized by the store rather than by application code.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ReplaceVault(ctx context.Context, id string, vault json.RawMessage) error
}
