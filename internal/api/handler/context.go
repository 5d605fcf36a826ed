package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call: an empty identity means the gate never
// ran, and no vault operation may proceed without it.
func ctxIdentity(c echo.Context) (string, error) {
	identity, _ := c.Get("identity").(string)
	if identity == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return identity, nil
}
