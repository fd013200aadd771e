package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id"`
	Scopes    map[string]bool `json:"scopes"` // "admin": true или "handoff.write": true
	jwt.RegisteredClaims
}

// Permissions разворачивает scopes в список для SessionState.
func (c *CustomClaims) Permissions() []string {
	out := make([]string, 0, len(c.Scopes))
	for scope, ok := range c.Scopes {
		if ok {
			out = append(out, scope)
		}
	}
	return out
}

// Secure Token Issuing
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}
