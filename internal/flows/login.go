package flows

import (
	"context"

	"github.com/MrEthical07/tenantauth/jwt"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownUser
	LoginFailureUserLookup
	LoginFailureBadPassword
	LoginFailureInactive
	LoginFailureIssue
)

// LoginResult is the flow-local login response.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	User    User
	Pair    jwt.Pair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	// LookupUser returns found=false for an unknown username.
	LookupUser     func(ctx context.Context, username string) (user User, found bool, err error)
	VerifyPassword func(password, encoded string) bool
	// DummyHash is verified against for unknown usernames so both failure
	// paths cost one hash computation.
	DummyHash string
	IssuePair PairIssuer
}

// RunLogin checks credentials in the order lookup, password, active status.
// A disabled account is only revealed to a caller that knows its password.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	user, found, err := deps.LookupUser(ctx, username)
	if err != nil {
		return LoginResult{Failure: LoginFailureUserLookup, Err: err}
	}
	if !found {
		if deps.DummyHash != "" {
			_ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return LoginResult{Failure: LoginFailureUnknownUser}
	}
	if !deps.VerifyPassword(password, user.PasswordHash) {
		return LoginResult{Failure: LoginFailureBadPassword, User: user}
	}
	if !user.Active {
		return LoginResult{Failure: LoginFailureInactive, User: user}
	}

	pair, err := deps.IssuePair(user.UserID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, User: user}
	}
	return LoginResult{User: user, Pair: pair}
}
