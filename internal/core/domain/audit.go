package domain

import "time"

// AuditAction identifies what an audit event records.
type AuditAction string

const (
	AuditRegister      AuditAction = "register"
	AuditLoginSuccess  AuditAction = "login_success"
	AuditLoginFailure  AuditAction = "login_failure"
	AuditMFASuccess    AuditAction = "mfa_success"
	AuditMFAFailure    AuditAction = "mfa_failure"
	AuditLogout        AuditAction = "logout"
	AuditVaultRead     AuditAction = "vault_read"
	AuditVaultReplaced AuditAction = "vault_replaced"
)

// AuditEvent is a single entry in the authentication/vault audit trail.
// Subject is the email for pre-auth events and the identity thereafter.
type AuditEvent struct {
	Subject    string      `json:"subject" bson:"subject"`
	Action     AuditAction `json:"action" bson:"action"`
	OccurredAt time.Time   `json:"occurred_at" bson:"occurred_at"`
}
