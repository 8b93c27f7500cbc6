package flows

import (
	"context"

	"github.com/MrEthical07/tenantauth/jwt"
)

// LogoutFailureKind classifies logout failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureValidate
	// LogoutFailureForeign means the refresh token belongs to another user.
	LogoutFailureForeign
	LogoutFailureRegistry
)

type LogoutResult struct {
	Failure         LogoutFailureKind
	ValidateFailure ValidateFailureKind
	Err             error
	// Revoked is false for a no-op logout without a refresh token.
	Revoked bool
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Validate ValidateDeps
	Registry Registry
}

// RunLogout revokes refreshToken on behalf of userID/tenantID. An empty token
// is a successful no-op; access tokens are stateless and simply expire.
func RunLogout(ctx context.Context, userID, tenantID, refreshToken string, deps LogoutDeps) LogoutResult {
	if refreshToken == "" {
		return LogoutResult{}
	}

	v := RunValidate(ctx, refreshToken, jwt.KindRefresh, deps.Validate)
	switch v.Failure {
	case ValidateFailureNone:
	case ValidateFailureRevoked:
		// Logging out twice is idempotent.
		if v.Claims.UserID == userID && v.Claims.TenantID == tenantID {
			return LogoutResult{}
		}
		return LogoutResult{Failure: LogoutFailureForeign}
	default:
		return LogoutResult{Failure: LogoutFailureValidate, ValidateFailure: v.Failure, Err: v.Err}
	}

	if v.Claims.UserID != userID || v.Claims.TenantID != tenantID {
		return LogoutResult{Failure: LogoutFailureForeign}
	}
	if err := deps.Registry.Revoke(ctx, refreshToken, v.Claims.ExpiresAt.Time); err != nil {
		return LogoutResult{Failure: LogoutFailureRegistry, Err: err}
	}
	return LogoutResult{Revoked: true}
}
