package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of a bearer token issued by the external auth
// provider. The subject is the user id.
type TokenClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// UserID returns the subject claim
func (c *TokenClaims) UserID() string {
	return c.Subject
}

// Summary returns the public view of the token holder
func (c *TokenClaims) Summary() UserSummary {
	return UserSummary{ID: c.Subject, Name: c.Name, Image: c.Picture}
}
