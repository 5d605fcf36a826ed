package ports

import (
	"context"
	"encoding/json"
)

// VaultService reads and replaces the opaque vault blob for an authenticated
// identity. The blob is never inspected or transformed here.
type VaultService interface {
	Get(ctx context.Context, identity string) (json.RawMessage, error)
	Put(ctx context.Context, identity string, vault json.RawMessage) error
}
