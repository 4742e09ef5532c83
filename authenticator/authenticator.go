package authenticator

import (
	"context"
)

// Token represents an authentication token
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       int64
}

// Claims represents user claims from the ID token
type Claims map[string]interface{}

// Subject returns the stable unique identifier of the user
func (c Claims) Subject() string {
	return c.str("sub")
}

// Email returns the user's email address, if present
func (c Claims) Email() string {
	return c.str("email")
}

// Name returns the user's display name, falling back to email
func (c Claims) Name() string {
	if name := c.str("name"); name != "" {
		return name
	}
	return c.Email()
}

func (c Claims) str(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Provider interface abstracts OAuth provider operations
type Provider interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	GetClaims(ctx context.Context, token *Token) (Claims, error)
}
