package flows

import (
	"context"

	"github.com/MrEthical07/tenantauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	// RefreshFailureValidate means the presented token did not validate;
	// ValidateFailure holds the detail.
	RefreshFailureValidate
	RefreshFailureUserLookup
	RefreshFailureUserMissing
	RefreshFailureUserInactive
	RefreshFailureIssue
	RefreshFailureRegistry
	// RefreshFailureLostRace means another caller consumed the token between
	// validation and rotation.
	RefreshFailureLostRace
)

// RefreshResult carries either the new pair or failure metadata.
type RefreshResult struct {
	Failure         RefreshFailureKind
	ValidateFailure ValidateFailureKind
	Err             error
	Claims          *jwt.Claims
	User            User
	Pair            jwt.Pair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Validate ValidateDeps
	// LoadUser returns found=false for an absent user.
	LoadUser  func(ctx context.Context, userID string) (user User, found bool, err error)
	IssuePair PairIssuer
	Registry  Registry
}

// RunRefresh validates the refresh token, re-reads the user, mints a new pair
// and consumes the presented token. The pair is only returned to the caller
// that wins Consume.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	v := RunValidate(ctx, token, jwt.KindRefresh, deps.Validate)
	if v.Failure != ValidateFailureNone {
		return RefreshResult{Failure: RefreshFailureValidate, ValidateFailure: v.Failure, Err: v.Err, Claims: v.Claims}
	}
	claims := v.Claims

	user, found, err := deps.LoadUser(ctx, claims.UserID)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureUserLookup, Err: err, Claims: claims}
	}
	if !found || user.TenantID != claims.TenantID {
		return RefreshResult{Failure: RefreshFailureUserMissing, Claims: claims}
	}
	if !user.Active {
		return RefreshResult{Failure: RefreshFailureUserInactive, Claims: claims, User: user}
	}

	pair, err := deps.IssuePair(user.UserID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Claims: claims, User: user}
	}

	won, err := deps.Registry.Consume(ctx, token, claims.ExpiresAt.Time)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRegistry, Err: err, Claims: claims, User: user}
	}
	if !won {
		return RefreshResult{Failure: RefreshFailureLostRace, Claims: claims, User: user}
	}

	return RefreshResult{Claims: claims, User: user, Pair: pair}
}
