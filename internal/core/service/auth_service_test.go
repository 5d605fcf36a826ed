package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/passvault/vault-service/internal/core/domain"
	"github.com/passvault/vault-service/internal/core/ports"
	"github.com/passvault/vault-service/internal/pkg/crypto"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User // keyed by email
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneUser(user)
	r.nextID++
	copy.ID = "id-" + strconv.Itoa(r.nextID)
	r.users[copy.Email] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ReplaceVault(_ context.Context, id string, vault json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.Vault = append(json.RawMessage(nil), vault...)
			u.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]string)}
}

func (s *stubSessionStore) Save(_ context.Context, jti, identity string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = identity
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity, ok := s.sessions[jti]; ok {
		return identity, nil
	}
	return "", domain.ErrUnauthorized
}

func (s *stubSessionStore) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

func newTestAuthService(repo ports.UserRepository, sessions ports.SessionStore) *AuthService {
	return NewAuthService(repo, sessions, nil, AuthConfig{
		SigningKey: []byte("test-signing-key"),
		Issuer:     "PasswordVault",
	})
}

// mfaLogin walks the password step and returns the intermediate token.
func mfaLogin(t *testing.T, svc *AuthService, email, password string) string {
	t.Helper()
	token, err := svc.VerifyPassword(context.Background(), email, password)
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected intermediate token")
	}
	return token
}

func TestAuthService_Register_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())

	enr, err := svc.Register(context.Background(), "alice@example.com", "pass1234")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if enr.MFASecret == "" {
		t.Fatalf("expected mfa secret")
	}
	if enr.OTPAuthURL == "" {
		t.Fatalf("expected otpauth url")
	}
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, newStubSessionStore())

	if _, err := svc.Register(context.Background(), "bob@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := repo.FindByEmail(context.Background(), "bob@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.PasswordHash == "pass1234" || user.PasswordHash == "" {
		t.Fatalf("password not hashed: %q", user.PasswordHash)
	}
	if !crypto.VerifyPassword(user.PasswordHash, "pass1234") {
		t.Fatalf("stored hash does not match password")
	}
	if user.MFASecret == "" {
		t.Fatalf("user stored without mfa secret")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())

	if _, err := svc.Register(context.Background(), "bob@example.com", "pass1234"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", "other"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_ConcurrentSameEmail(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "race@example.com", "pass1234")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if err != domain.ErrUserExists {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one registration to succeed, got %d", succeeded)
	}
}

func TestAuthService_VerifyPassword_Success(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())
	if _, err := svc.Register(context.Background(), "carol@example.com", "s3cret99"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token := mfaLogin(t, svc, "carol@example.com", "s3cret99")

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("intermediate token invalid: %v", err)
	}
	if claims["scope"] != "mfa" {
		t.Fatalf("expected mfa scope, got %v", claims["scope"])
	}
	if claims["sub"] != "carol@example.com" {
		t.Fatalf("unexpected subject: %v", claims["sub"])
	}
}

func TestAuthService_VerifyPassword_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())
	if _, err := svc.Register(context.Background(), "dave@example.com", "goodpass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, errWrong := svc.VerifyPassword(context.Background(), "dave@example.com", "badpass")
	_, errGhost := svc.VerifyPassword(context.Background(), "ghost@example.com", "badpass")

	if errWrong != domain.ErrInvalidCredentials {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrong)
	}
	if errGhost != domain.ErrInvalidCredentials {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errGhost)
	}
}

func TestAuthService_VerifyMFA_Success(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	svc := newTestAuthService(repo, sessions)

	if _, err := svc.Register(context.Background(), "erin@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	mfaToken := mfaLogin(t, svc, "erin@example.com", "pass1234")

	user, _ := repo.FindByEmail(context.Background(), "erin@example.com")
	code, err := crypto.CodeAt(user.MFASecret, time.Now())
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}

	token, err := svc.VerifyMFA(context.Background(), "erin@example.com", code, mfaToken)
	if err != nil {
		t.Fatalf("VerifyMFA failed: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("session token invalid: %v", err)
	}
	if claims["scope"] != "session" {
		t.Fatalf("expected session scope, got %v", claims["scope"])
	}
	if claims["sub"] != user.ID {
		t.Fatalf("session token bound to %v, want %v", claims["sub"], user.ID)
	}

	jti, _ := claims["jti"].(string)
	identity, err := sessions.Get(context.Background(), jti)
	if err != nil || identity != user.ID {
		t.Fatalf("session not stored: identity=%q err=%v", identity, err)
	}
}

func TestAuthService_VerifyMFA_WrongCode(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, newStubSessionStore())

	if _, err := svc.Register(context.Background(), "frank@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	mfaToken := mfaLogin(t, svc, "frank@example.com", "pass1234")

	user, _ := repo.FindByEmail(context.Background(), "frank@example.com")
	stale, err := crypto.CodeAt(user.MFASecret, time.Now().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}

	if _, err := svc.VerifyMFA(context.Background(), "frank@example.com", stale, mfaToken); err != domain.ErrInvalidMFACode {
		t.Fatalf("expected ErrInvalidMFACode, got %v", err)
	}
}

func TestAuthService_VerifyMFA_RequiresPasswordStep(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, newStubSessionStore())

	if _, err := svc.Register(context.Background(), "grace@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	user, _ := repo.FindByEmail(context.Background(), "grace@example.com")
	code, _ := crypto.CodeAt(user.MFASecret, time.Now())

	// No intermediate token at all.
	if _, err := svc.VerifyMFA(context.Background(), "grace@example.com", code, ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials without token, got %v", err)
	}

	// Intermediate token issued for a different account.
	if _, err := svc.Register(context.Background(), "heidi@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	otherToken := mfaLogin(t, svc, "heidi@example.com", "pass1234")
	if _, err := svc.VerifyMFA(context.Background(), "grace@example.com", code, otherToken); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for foreign token, got %v", err)
	}
}

func TestAuthService_VerifyMFA_SessionTokenRejectedAsMFAToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo, newStubSessionStore())

	if _, err := svc.Register(context.Background(), "ivan@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	mfaToken := mfaLogin(t, svc, "ivan@example.com", "pass1234")
	user, _ := repo.FindByEmail(context.Background(), "ivan@example.com")
	code, _ := crypto.CodeAt(user.MFASecret, time.Now())

	session, err := svc.VerifyMFA(context.Background(), "ivan@example.com", code, mfaToken)
	if err != nil {
		t.Fatalf("VerifyMFA failed: %v", err)
	}

	// A session token must not stand in for the password-verified token.
	if _, err := svc.VerifyMFA(context.Background(), "ivan@example.com", code, session); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong scope, got %v", err)
	}
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	svc := newTestAuthService(repo, sessions)

	if _, err := svc.Register(context.Background(), "judy@example.com", "pass1234"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	mfaToken := mfaLogin(t, svc, "judy@example.com", "pass1234")
	user, _ := repo.FindByEmail(context.Background(), "judy@example.com")
	code, _ := crypto.CodeAt(user.MFASecret, time.Now())

	token, err := svc.VerifyMFA(context.Background(), "judy@example.com", code, mfaToken)
	if err != nil {
		t.Fatalf("VerifyMFA failed: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	claims := jwt.MapClaims{}
	_, _ = jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-signing-key"), nil
	})
	jti, _ := claims["jti"].(string)
	if _, err := sessions.Get(context.Background(), jti); err != domain.ErrUnauthorized {
		t.Fatalf("expected session to be revoked, got %v", err)
	}

	// Logging out twice is harmless.
	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestAuthService_Logout_RejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), newStubSessionStore())
	if err := svc.Logout(context.Background(), "not-a-token"); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
