package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/passvault/vault-service/internal/api/metrics"
	"github.com/passvault/vault-service/internal/core/domain"
	"github.com/passvault/vault-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	Message    string `json:"message"`
	MFASecret  string `json:"mfa_secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message  string `json:"message"`
	MFAToken string `json:"mfa_token"`
}

type mfaVerifyRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Code     string `json:"code"      validate:"required,numeric,len=6"`
	MFAToken string `json:"mfa_token" validate:"required"`
}

type mfaVerifyResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Register creates a user and returns the TOTP enrollment material.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	enr, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if err == domain.ErrUserExists {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return c.JSON(http.StatusConflict, errorResponse{Error: "user already exists"})
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message:    "user registered successfully",
		MFASecret:  enr.MFASecret,
		OTPAuthURL: enr.OTPAuthURL,
	})
}

// Login is the first protocol step: it checks the password and returns the
// short-lived token the MFA step requires. No session is issued here.
//
// @Summary      Verify password (step 1 of 2)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	mfaToken, err := h.authService.VerifyPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if err == domain.ErrInvalidCredentials {
			metrics.AuthFailuresTotal.WithLabelValues("password").Inc()
			// One body for wrong password and unknown account alike.
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		}
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message:  "password verified, mfa required",
		MFAToken: mfaToken,
	})
}

// VerifyMFA is the second protocol step: it checks the one-time code and, on
// success, issues the session token.
//
// @Summary      Verify one-time code (step 2 of 2)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      mfaVerifyRequest  true  "Email, code and the token from /auth/login"
// @Success      200   {object}  mfaVerifyResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/mfa/verify [post]
func (h *AuthHandler) VerifyMFA(c echo.Context) error {
	var req mfaVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, err := h.authService.VerifyMFA(c.Request().Context(), req.Email, req.Code, req.MFAToken)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials:
			metrics.AuthFailuresTotal.WithLabelValues("mfa").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		case domain.ErrInvalidMFACode:
			metrics.AuthFailuresTotal.WithLabelValues("mfa").Inc()
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid mfa code"})
		}
		return err
	}

	metrics.SessionsIssuedTotal.Inc()
	return c.JSON(http.StatusOK, mfaVerifyResponse{
		Message: "mfa verified",
		Token:   token,
	})
}

// Logout revokes the presented session token.
//
// @Summary      Revoke the current session
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid authorization header"})
	}

	if err := h.authService.Logout(c.Request().Context(), parts[1]); err != nil {
		if err == domain.ErrUnauthorized {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		}
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
