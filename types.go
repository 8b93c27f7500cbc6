package tenantauth

import (
	"context"
	"time"
)

// Role is the closed set of roles a Principal can hold.
type Role = string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Principal is the identity established for one request from a validated
// access token. It is a value; nothing in the Engine retains it.
type Principal struct {
	UserID    string
	TenantID  string
	Username  string
	Role      Role
	ExpiresAt time.Time
}

// IsAdmin reports whether p holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RefreshSubject is the identity carried by a valid, unrevoked refresh token.
type RefreshSubject struct {
	UserID    string
	TenantID  string
	ExpiresAt time.Time
}

// TokenPair is returned by Login and Refresh. ExpiresIn is the access token
// lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Admission is the outcome of a rate check.
type Admission struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// CredentialRecord is what a [UserStore] holds for one account.
type CredentialRecord struct {
	UserID       string
	TenantID     string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserView is the public projection of a CredentialRecord.
type UserView struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View drops the password hash.
func (r CredentialRecord) View() UserView {
	return UserView{
		ID:        r.UserID,
		TenantID:  r.TenantID,
		Username:  r.Username,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      r.Role,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// UserStore is the lookup the Engine needs from the user database. Absent
// users are reported as [ErrUserNotFound].
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (CredentialRecord, error)
	GetByID(ctx context.Context, userID string) (CredentialRecord, error)
}

// Clock supplies the current time. Tests inject a fixed clock.
type Clock func() time.Time
