package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestExtractBearerToken(t *testing.T) {
	tok, ok := ExtractBearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "bearer abc", "Basic abc", "Bearer ", "Token abc"} {
		_, ok := ExtractBearerToken(h)
		assert.False(t, ok, h)
	}
}

func TestTokenVerifier_Valid(t *testing.T) {
	v := NewTokenVerifier("secret", "", "authenticated")
	token := signToken(t, "secret", Claims{
		Email: "owner@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "owner@example.com", claims.Email)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := NewTokenVerifier("secret", "", "")
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]string{
		"wrong secret": signToken(t, "other", jwt.RegisteredClaims{Subject: "u", ExpiresAt: future}),
		"expired":      signToken(t, "secret", jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}),
		"no expiry":    signToken(t, "secret", jwt.RegisteredClaims{Subject: "u"}),
		"no subject":   signToken(t, "secret", jwt.RegisteredClaims{ExpiresAt: future}),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		_, err := v.Verify(token)
		assert.Error(t, err, name)
	}
}
