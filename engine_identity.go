package tenantauth

import (
	"context"
	"strings"
)

// ParseBearer extracts the token from an Authorization header value. The
// value must be exactly two whitespace-separated fields with a
// case-insensitive "Bearer" scheme.
func ParseBearer(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", unauthenticated(ErrMissingCredential)
	}
	fields := strings.Fields(value)
	if len(fields) != 2 {
		return "", unauthenticated(ErrMalformedCredential)
	}
	if !strings.EqualFold(fields[0], "bearer") {
		return "", unauthenticated(ErrInvalidScheme)
	}
	return fields[1], nil
}

// Resolve parses an Authorization header value and validates the access
// token it carries.
func (e *Engine) Resolve(ctx context.Context, header string) (Principal, error) {
	token, err := ParseBearer(header)
	if err != nil {
		return Principal{}, err
	}
	return e.ValidateAccess(ctx, token)
}
