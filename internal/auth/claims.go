package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload. The subject is the actor ID; role and display
// name are looked up per request, never trusted from the token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// ActorID returns the subject claim
func (c *Claims) ActorID() string {
	return c.Subject
}
