package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/tenantauth/jwt"
)

// Deps groups flow dependency sets. The Engine builds this once at Build time
// and delegates each operation to the matching flow.
type Deps struct {
	Validate ValidateDeps
	Refresh  RefreshDeps
	Login    LoginDeps
	Logout   LogoutDeps
}

// Registry is the slice of the revocation store the flows need.
type Registry interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error)
}

// User is the flow-local view of a credential record.
type User struct {
	UserID       string
	TenantID     string
	Username     string
	PasswordHash string
	Role         string
	Active       bool
}

// PairIssuer mints a token pair for a user.
type PairIssuer func(userID, tenantID, username, role string) (jwt.Pair, error)
