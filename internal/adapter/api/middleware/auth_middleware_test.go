package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "good-token" {
		return "user-1", nil
	}
	return "", fmt.Errorf("unknown token")
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUID string
	next := func(c echo.Context) error {
		gotUID, _ = c.Get("uid").(string)
		return c.NoContent(http.StatusOK)
	}

	m := NewAuthMiddleware(stubVerifier{})
	require.NoError(t, m.Authenticate(next)(c))
	return rec, gotUID
}

func TestAuthenticateSetsUID(t *testing.T) {
	rec, uid := runAuth(t, "Bearer good-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", uid)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	rec, uid := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, uid)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	rec, uid := runAuth(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, uid)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	rec, uid := runAuth(t, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, uid)
}
