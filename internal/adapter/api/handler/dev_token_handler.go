package handler

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/infrastructure/jwtauth"
	"pasarbuku/pkg/errors"
	"pasarbuku/pkg/response"
)

// DevTokenHandler mints short-lived HS256 tokens for local development. It
// is only mounted when ENVIRONMENT=development.
type DevTokenHandler struct {
	verifier *jwtauth.Verifier
}

func NewDevTokenHandler(verifier *jwtauth.Verifier) *DevTokenHandler {
	return &DevTokenHandler{verifier: verifier}
}

type MintTokenRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *DevTokenHandler) MintToken(c echo.Context) error {
	var req MintTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.verifier.Mint(req.UserID)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to mint token", err))
	}

	return response.Success(c, map[string]string{"token": token})
}
