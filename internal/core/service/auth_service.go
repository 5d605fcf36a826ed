package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/passvault/vault-service/internal/core/domain"
	"github.com/passvault/vault-service/internal/core/ports"
	"github.com/passvault/vault-service/internal/pkg/crypto"
)

const (
	scopeMFA     = "mfa"
	scopeSession = "session"
)

// dummyHash is verified against when a login targets an unknown email, so a
// missing account costs the same as a wrong password and lookup outcome
// cannot be inferred from response latency.
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$An2SoNwH13/n1yVJGNoV7aL2XOYQIBdoHt52cSTSTGE"

// AuthService implements the three-step authentication protocol: register,
// password check, TOTP check. The first two steps never issue a session
// token; the password step issues a short-lived intermediate token that the
// TOTP step demands, so the steps cannot be replayed out of order.
type AuthService struct {
	repo       ports.UserRepository
	sessions   ports.SessionStore
	audit      ports.AuditSink
	signingKey []byte
	issuer     string
	mfaTTL     time.Duration
	sessionTTL time.Duration
	opTimeout  time.Duration
	now        func() time.Time
}

// AuthConfig carries the knobs AuthService needs at construction time. There
// is deliberately no package-level state: two services with different keys
// can coexist in one process.
type AuthConfig struct {
	SigningKey  []byte
	Issuer      string
	MFATokenTTL time.Duration
	SessionTTL  time.Duration
	OpTimeout   time.Duration
}

func NewAuthService(repo ports.UserRepository, sessions ports.SessionStore, audit ports.AuditSink, cfg AuthConfig) *AuthService {
	if cfg.MFATokenTTL <= 0 {
		cfg.MFATokenTTL = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 10 * time.Second
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "PasswordVault"
	}
	return &AuthService{
		repo:       repo,
		sessions:   sessions,
		audit:      audit,
		signingKey: cfg.SigningKey,
		issuer:     cfg.Issuer,
		mfaTTL:     cfg.MFATokenTTL,
		sessionTTL: cfg.SessionTTL,
		opTimeout:  cfg.OpTimeout,
		now:        time.Now,
	}
}

// Register creates a user with a fresh password hash and TOTP secret and
// returns the enrollment material. Duplicate emails surface as
// domain.ErrUserExists via the store's unique index; there is no
// check-then-create race in this layer.
func (s *AuthService) Register(ctx context.Context, email, password string) (*ports.Enrollment, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	enr, err := crypto.GenerateSecret(s.issuer, email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		MFASecret:    enr.Secret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.record(email, domain.AuditRegister)

	// The only point at which the shared secret leaves the server.
	return &ports.Enrollment{MFASecret: enr.Secret, OTPAuthURL: enr.OTPAuthURL}, nil
}

// VerifyPassword checks the password for email and, on success, returns a
// signed token attesting the check passed. Unknown email and wrong password
// are indistinguishable: same error, same approximate latency.
func (s *AuthService) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			crypto.VerifyPassword(dummyHash, password)
			s.record(email, domain.AuditLoginFailure)
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		s.record(email, domain.AuditLoginFailure)
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.signToken(jwt.MapClaims{
		"sub":   email,
		"scope": scopeMFA,
		"exp":   s.now().Add(s.mfaTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	s.record(email, domain.AuditLoginSuccess)
	return token, nil
}

// VerifyMFA validates the intermediate token from VerifyPassword and the
// submitted one-time code, then mints a session token bound to the user's
// identity and records it in the session store.
func (s *AuthService) VerifyMFA(ctx context.Context, email, code, mfaToken string) (string, error) {
	if email == "" || code == "" {
		return "", domain.ErrInvalidCredentials
	}

	sub, _, err := s.parseToken(mfaToken, scopeMFA)
	if err != nil || sub != email {
		return "", domain.ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(email, domain.AuditMFAFailure)
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !crypto.VerifyCode(user.MFASecret, code, s.now()) {
		s.record(email, domain.AuditMFAFailure)
		return "", domain.ErrInvalidMFACode
	}

	jti := uuid.NewString()
	token, err := s.signToken(jwt.MapClaims{
		"sub":   user.ID,
		"jti":   jti,
		"scope": scopeSession,
		"exp":   s.now().Add(s.sessionTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	if err := s.sessions.Save(ctx, jti, user.ID, s.sessionTTL); err != nil {
		return "", err
	}

	s.record(email, domain.AuditMFASuccess)
	return token, nil
}

// Logout revokes the session named by the token. An already-revoked or
// expired token is not an error; the outcome is the same.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	sub, jti, err := s.parseToken(sessionToken, scopeSession)
	if err != nil || jti == "" {
		return domain.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.sessions.Revoke(ctx, jti); err != nil {
		return err
	}
	s.record(sub, domain.AuditLogout)
	return nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.signingKey)
}

func (s *AuthService) parseToken(raw, wantScope string) (sub, jti string, err error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.signingKey, nil
	})
	if err != nil || !tkn.Valid {
		return "", "", domain.ErrUnauthorized
	}
	if scope, _ := claims["scope"].(string); scope != wantScope {
		return "", "", domain.ErrUnauthorized
	}
	sub, _ = claims["sub"].(string)
	jti, _ = claims["jti"].(string)
	if sub == "" {
		return "", "", domain.ErrUnauthorized
	}
	return sub, jti, nil
}

func (s *AuthService) record(subject string, action domain.AuditAction) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{Subject: subject, Action: action, OccurredAt: s.now().UTC()})
}
