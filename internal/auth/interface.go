package auth

// TokenVerifier validates a bearer token and returns its claims.
// Implementations return domain.ErrUnauthorized for any rejected token.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier (e.g. JWKS refresh)
	Close() error
}
