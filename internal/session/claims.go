package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ardiansyahn/crm-backoffice/internal"
)

// Claims is what the backend puts in its access tokens. The client has
// no signing key, so the parse is unverified: claims are used for
// diagnostics (expiry display), never for authorization decisions.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func ParseAccessClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}

// ExpiresIn returns how long the token is still valid, zero when it has
// already expired or carries no expiry.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
