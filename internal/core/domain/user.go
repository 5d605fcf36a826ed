package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidMFACode = errors.New("invalid mfa code")
var ErrUnauthorized = errors.New("unauthorized")

// User models a vault owner. Email is the natural lookup key during
// authentication and is matched case-sensitively. ID is the stable identity
// that session tokens resolve to; it never changes after creation.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	MFASecret    string          `json:"-"`
	Vault        json.RawMessage `json:"vault,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
