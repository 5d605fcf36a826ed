package ports

import "context"

// Enrollment is returned once, at registration, so the user can load the
// shared secret into an authenticator app.
type Enrollment struct {
	MFASecret  string `json:"mfa_secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

// AuthService is the three-step authentication protocol: register, prove the
// password, prove possession of the TOTP secret. Only the third step issues
// a session token.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*Enrollment, error)
	// VerifyPassword returns a short-lived token attesting that the password
	// check passed; VerifyMFA requires it before checking the one-time code.
	VerifyPassword(ctx context.Context, email, password string) (string, error)
	VerifyMFA(ctx context.Context, email, code, mfaToken string) (string, error)
	Logout(ctx context.Context, sessionToken string) error
}
