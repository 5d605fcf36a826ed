package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/passvault/vault-service/internal/core/ports"
)

// Auth is the access-control gate in front of the vault routes. It strips the
// bearer scheme, validates the HS256 session token, confirms the session is
// still live in the store, and injects the resolved identity into the request
// context. Nothing downstream runs without it.
func Auth(signingKey []byte, sessions ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return signingKey, nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if scope, _ := claims["scope"].(string); scope != "session" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			jti, _ := claims["jti"].(string)
			if sub == "" || jti == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			// Signature alone is not enough: the session must still exist in
			// the store and resolve to the same identity the token names.
			identity, err := sessions.Get(c.Request().Context(), jti)
			if err != nil || identity != sub {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("identity", identity)
			c.Set("jti", jti)

			return next(c)
		}
	}
}
