package crypto

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTP parameters are system-wide constants: a 30-second step, 6-digit codes
// and an acceptance window of ±2 steps of clock skew. Both the enrollment URL
// and verification derive from the same values.
const (
	totpPeriod uint = 30
	totpSkew   uint = 2
)

// Enrollment carries the freshly generated shared secret together with the
// otpauth URL an authenticator app can consume directly.
type Enrollment struct {
	Secret     string
	OTPAuthURL string
}

// GenerateSecret produces a new random TOTP shared secret (base32) for the
// given account, labeled with issuer. The randomness comes from crypto/rand;
// an error here means the entropy source itself failed and the whole
// operation must be abandoned, not retried silently.
func GenerateSecret(issuer, account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	return &Enrollment{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// VerifyCode reports whether code is valid for secret at time now, accepting
// codes from up to totpSkew steps either side of the current step. Anything
// outside the window is rejected unconditionally.
func VerifyCode(secret, code string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// CodeAt computes the expected code for secret at the given instant. Used by
// tests and enrollment previews; verification goes through VerifyCode.
func CodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at.UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
