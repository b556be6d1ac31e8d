package jwtauth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndVerify(t *testing.T) {
	v := NewVerifier("test-secret", 3600)

	token, err := v.Mint("user-42")
	require.NoError(t, err)

	uid, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", uid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a", 3600).Mint("user-42")
	require.NoError(t, err)

	_, err = NewVerifier("secret-b", 3600).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := NewVerifier("test-secret", -60).Mint("user-42")
	require.NoError(t, err)

	_, err = NewVerifier("test-secret", 3600).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingUserIDClaim(t *testing.T) {
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-42"})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = NewVerifier("test-secret", 3600).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "user-42"})
	token, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewVerifier("test-secret", 3600).Verify(context.Background(), token)
	assert.Error(t, err)
}
