package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/passvault/vault-service/internal/api/metrics"
	"github.com/passvault/vault-service/internal/core/domain"
	"github.com/passvault/vault-service/internal/core/ports"
)

// VaultHandler serves the vault routes. Both routes sit behind the Auth
// middleware; the blob itself passes through untouched in either direction.
type VaultHandler struct {
	vaultService ports.VaultService
}

func NewVaultHandler(vaultService ports.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vaultService}
}

type getVaultResponse struct {
	Vault json.RawMessage `json:"vault"`
}

type putVaultRequest struct {
	Vault json.RawMessage `json:"vault" validate:"required"`
}

type putVaultResponse struct {
	Message string `json:"message"`
}

// Get returns the caller's vault blob.
//
// @Summary      Get the vault
// @Tags         vault
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  getVaultResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /vault [get]
func (h *VaultHandler) Get(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	vault, err := h.vaultService.Get(c.Request().Context(), identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}

	metrics.VaultOperationsTotal.WithLabelValues("get").Inc()
	return c.JSON(http.StatusOK, getVaultResponse{Vault: vault})
}

// Put replaces the caller's vault blob wholesale.
//
// @Summary      Replace the vault
// @Tags         vault
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      putVaultRequest  true  "New vault contents"
// @Success      200   {object}  putVaultResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /vault [put]
func (h *VaultHandler) Put(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req putVaultRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if len(req.Vault) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "vault is required"})
	}

	if err := h.vaultService.Put(c.Request().Context(), identity, req.Vault); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
		}
		return err
	}

	metrics.VaultOperationsTotal.WithLabelValues("put").Inc()
	return c.JSON(http.StatusOK, putVaultResponse{Message: "vault updated successfully"})
}
