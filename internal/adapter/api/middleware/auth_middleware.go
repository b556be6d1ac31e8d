package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"pasarbuku/pkg/errors"
	"pasarbuku/pkg/response"
)

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate extracts the Authorization bearer token, verifies it and
// stores the resulting user id under "uid" in the echo context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return response.Error(c, errors.Unauthorized("Authorization header format must be Bearer {token}", nil))
		}

		uid, err := m.verifier.Verify(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", uid)
		return next(c)
	}
}
