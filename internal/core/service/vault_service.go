package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/passvault/vault-service/internal/core/domain"
	"github.com/passvault/vault-service/internal/core/ports"
)

// VaultService reads and replaces the per-user vault blob. The blob is an
// uninterpreted unit: no schema validation, no partial update, last writer
// wins.
type VaultService struct {
	repo      ports.UserRepository
	audit     ports.AuditSink
	opTimeout time.Duration
}

func NewVaultService(repo ports.UserRepository, audit ports.AuditSink, opTimeout time.Duration) *VaultService {
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}
	return &VaultService{repo: repo, audit: audit, opTimeout: opTimeout}
}

func (s *VaultService) Get(ctx context.Context, identity string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.repo.FindByID(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.record(identity, domain.AuditVaultRead)
	return user.Vault, nil
}

func (s *VaultService) Put(ctx context.Context, identity string, vault json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.repo.ReplaceVault(ctx, identity, vault); err != nil {
		return err
	}

	s.record(identity, domain.AuditVaultReplaced)
	return nil
}

func (s *VaultService) record(subject string, action domain.AuditAction) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{Subject: subject, Action: action, OccurredAt: time.Now().UTC()})
}
