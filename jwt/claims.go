package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access tokens from refresh tokens. It is carried in the
// "type" claim.
type Kind string

const (
	// KindAccess marks a short-lived token authorizing API calls.
	KindAccess Kind = "access"
	// KindRefresh marks a long-lived token used only to mint a new pair.
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload. Username and Role are set on access tokens
// only; refresh tokens carry identity without role so the role is re-read from
// the user store on rotation.
type Claims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Type     Kind   `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) wellFormed() bool {
	if c.UserID == "" || c.TenantID == "" {
		return false
	}
	switch c.Type {
	case KindAccess, KindRefresh:
	default:
		return false
	}
	return c.ExpiresAt != nil
}
