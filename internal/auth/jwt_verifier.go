package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"teamnotes/internal/domain"
)

// JWTVerifier implements TokenVerifier using keys from a JWKS endpoint
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// Keys are cached and refreshed in the background until Close.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWTVerifier{
		keyfunc: jwks.Keyfunc,
		cancel:  cancel,
		logger:  logger,
	}, nil
}

// newJWTVerifierWithKeyfunc is used by tests to verify against a local key
func newJWTVerifierWithKeyfunc(kf jwt.Keyfunc, logger *slog.Logger) *JWTVerifier {
	return &JWTVerifier{keyfunc: kf, cancel: func() {}, logger: logger}
}

// VerifyToken validates signature, expiry and subject
func (v *JWTVerifier) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close stops the background JWKS refresh
func (v *JWTVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}
