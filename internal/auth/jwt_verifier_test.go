package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamnotes/internal/domain"
)

func testVerifier(t *testing.T) (*JWTVerifier, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	kf := func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }
	return newJWTVerifierWithKeyfunc(kf, slog.New(slog.NewTextHandler(io.Discard, nil))), key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, &Claims{RegisteredClaims: claims})
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	v, key := testVerifier(t)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.VerifyToken(sign(t, key, jwt.RegisteredClaims{Subject: "actor-1", ExpiresAt: future}))
		require.NoError(t, err)
		assert.Equal(t, "actor-1", claims.ActorID())
	})

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, key, jwt.RegisteredClaims{Subject: "actor-1", ExpiresAt: past})},
		{"missing expiry", sign(t, key, jwt.RegisteredClaims{Subject: "actor-1"})},
		{"missing subject", sign(t, key, jwt.RegisteredClaims{ExpiresAt: future})},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized))
		})
	}

	t.Run("hmac rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "actor-1", ExpiresAt: future}})
		s, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = v.VerifyToken(s)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}

func TestDevVerifier(t *testing.T) {
	claims, err := DevVerifier{}.VerifyToken(" admin-1 ")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.ActorID())

	_, err = DevVerifier{}.VerifyToken("  ")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
