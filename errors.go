package tenantauth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/tenantauth/jwt"
)

var (
	// ErrUnauthenticated is the umbrella error for every credential that does
	// not establish a Principal. More specific causes are joined to it.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMissingCredential is returned when no Authorization value is present.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential is returned when the Authorization value is not "Bearer <token>".
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidScheme is a well-formed Authorization value whose scheme is not
	// Bearer. It matches ErrMalformedCredential.
	ErrInvalidScheme = fmt.Errorf("invalid authentication scheme: %w", ErrMalformedCredential)
	// ErrTokenExpired aliases the codec error so callers need one import.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenSignatureInvalid aliases the codec error.
	ErrTokenSignatureInvalid = jwt.ErrSignatureInvalid
	// ErrTokenMalformed aliases the codec error.
	ErrTokenMalformed = jwt.ErrMalformed
	// ErrTokenRevoked is returned for refresh tokens that were consumed or logged out.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrWrongKind is returned when an access token is presented where a refresh
	// token is expected, or the reverse.
	ErrWrongKind = errors.New("wrong token kind")

	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is shared by absent resources and cross-tenant access so the
	// two are indistinguishable to the caller.
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrConflict    = errors.New("conflict")

	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	// ErrUserNotFound is what a UserStore returns for an absent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserUnavailable is joined to ErrUnauthenticated when a refresh token's
	// user is gone, inactive or in another tenant.
	ErrUserUnavailable = errors.New("user not found or inactive")

	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitError is returned by [Engine.Admit] on rejection.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: retry after " + strconv.FormatInt(int64(e.RetryAfter/time.Second), 10) + "s"
}

// Is makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the wait up to whole seconds, minimum one.
func (e *RateLimitError) RetryAfterSeconds() int64 {
	secs := int64(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

func unauthenticated(cause error) error {
	if cause == nil {
		return ErrUnauthenticated
	}
	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}
