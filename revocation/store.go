package revocation

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"
)

// ErrBackendUnavailable wraps failures of a remote registry backend.
var ErrBackendUnavailable = errors.New("revocation backend unavailable")

// Store tracks revoked refresh tokens.
//
// Consume is the rotation primitive: it marks token revoked and reports true
// only to the first caller, atomically with respect to concurrent Consume and
// Revoke calls for the same token.
type Store interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error)
}

// Digest is the registry key for a token.
type Digest [sha256.Size]byte

// DigestOf hashes a compact token string.
func DigestOf(token string) Digest {
	return sha256.Sum256([]byte(token))
}
