package jwtauth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Verifier validates HS256 tokens signed with the shared server secret. It
// backs local development and tests, where no Firebase project is available,
// and mirrors the token shape the identity service issues: a "userId" claim
// plus standard expiry.
type Verifier struct {
	secret []byte
	expiry time.Duration
}

func NewVerifier(secret string, expirySeconds int64) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		expiry: time.Duration(expirySeconds) * time.Second,
	}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("token missing userId claim")
	}

	return userID, nil
}

// Mint issues a development token for the given user id. Exposed through the
// dev router only; production credentials come from the identity service.
func (v *Verifier) Mint(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(v.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
