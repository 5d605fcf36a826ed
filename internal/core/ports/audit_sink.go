package ports

import (
	"context"

	"github.com/passvault/vault-service/internal/core/domain"
)

// AuditSink accepts audit events for asynchronous recording. Implementations
// must never block the calling request path beyond a bounded enqueue.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}
