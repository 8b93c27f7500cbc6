package flows

import (
	"context"

	"github.com/MrEthical07/tenantauth/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	// ValidateFailureDecode carries one of the codec errors in Err.
	ValidateFailureDecode
	ValidateFailureWrongKind
	ValidateFailureRevoked
	ValidateFailureRegistry
)

// ValidateResult returns either claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures validation dependencies.
type ValidateDeps struct {
	Decode   func(string) (*jwt.Claims, error)
	Registry Registry
}

// RunValidate decodes token and checks it is of kind want. Refresh tokens are
// additionally checked against the registry. Each stage short-circuits the
// rest, so an expired token that is also revoked reports the decode failure.
func RunValidate(ctx context.Context, token string, want jwt.Kind, deps ValidateDeps) ValidateResult {
	claims, err := deps.Decode(token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}
	if claims.Type != want {
		return ValidateResult{Failure: ValidateFailureWrongKind, Claims: claims}
	}
	if want != jwt.KindRefresh || deps.Registry == nil {
		return ValidateResult{Claims: claims}
	}

	revoked, err := deps.Registry.IsRevoked(ctx, token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureRegistry, Err: err, Claims: claims}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked, Claims: claims}
	}
	return ValidateResult{Claims: claims}
}
