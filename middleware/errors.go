package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrEthical07/tenantauth"
)

// StatusCode maps an Engine error onto an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tenantauth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, tenantauth.ErrUnauthenticated),
		errors.Is(err, tenantauth.ErrMissingCredential),
		errors.Is(err, tenantauth.ErrMalformedCredential),
		errors.Is(err, tenantauth.ErrTokenExpired),
		errors.Is(err, tenantauth.ErrTokenSignatureInvalid),
		errors.Is(err, tenantauth.ErrTokenMalformed),
		errors.Is(err, tenantauth.ErrTokenRevoked),
		errors.Is(err, tenantauth.ErrWrongKind),
		errors.Is(err, tenantauth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, tenantauth.ErrForbidden),
		errors.Is(err, tenantauth.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, tenantauth.ErrNotFound),
		errors.Is(err, tenantauth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, tenantauth.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, tenantauth.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the public message for err. Causes that are not part of the
// Engine's error vocabulary collapse to a generic message.
func Detail(err error) string {
	switch {
	case errors.Is(err, tenantauth.ErrRateLimited):
		return "Rate limit exceeded"
	case errors.Is(err, tenantauth.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, tenantauth.ErrMissingCredential):
		return "Missing authorization header"
	case errors.Is(err, tenantauth.ErrInvalidScheme):
		return "Invalid authentication scheme"
	case errors.Is(err, tenantauth.ErrMalformedCredential):
		return "Invalid authorization header format"
	case errors.Is(err, tenantauth.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, tenantauth.ErrTokenRevoked):
		return "Token has been revoked"
	case errors.Is(err, tenantauth.ErrWrongKind):
		return "Invalid token type"
	case errors.Is(err, tenantauth.ErrTokenSignatureInvalid),
		errors.Is(err, tenantauth.ErrTokenMalformed):
		return "Invalid token"
	case errors.Is(err, tenantauth.ErrUserUnavailable):
		return "User not found or inactive"
	case errors.Is(err, tenantauth.ErrUnauthenticated):
		return "Could not validate credentials"
	case errors.Is(err, tenantauth.ErrAccountDisabled):
		return "User account is deactivated"
	case errors.Is(err, tenantauth.ErrForbidden):
		return "Admin access required"
	case errors.Is(err, tenantauth.ErrNotFound),
		errors.Is(err, tenantauth.ErrUserNotFound):
		return "Not found"
	case errors.Is(err, tenantauth.ErrConflict):
		return "Already exists"
	case errors.Is(err, tenantauth.ErrEngineNotReady):
		return "Service unavailable"
	default:
		return "Internal server error"
	}
}

// WriteError writes err as a JSON body. 401 responses carry a Bearer
// challenge and 429 responses carry Retry-After.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	h := w.Header()

	switch status {
	case http.StatusUnauthorized:
		h.Set("WWW-Authenticate", "Bearer")
	case http.StatusTooManyRequests:
		var rl *tenantauth.RateLimitError
		if errors.As(err, &rl) {
			h.Set("Retry-After", strconv.FormatInt(rl.RetryAfterSeconds(), 10))
		}
	}

	WriteJSON(w, status, map[string]string{"detail": Detail(err)})
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
