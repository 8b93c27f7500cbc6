package revocation

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces registry keys.
const DefaultRedisPrefix = "ta:rv"

// Redis stores revoked token digests as keys that expire with the token.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis returns a Redis-backed [Store]. An empty prefix selects
// [DefaultRedisPrefix].
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(token string) string {
	d := DigestOf(token)
	return r.prefix + ":" + hex.EncodeToString(d[:])
}

// ttl maps an absolute expiry onto a key TTL. Zero means keep forever; a past
// expiry still keeps the key for a second so concurrent callers observe it.
func (r *Redis) ttl(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	d := expiresAt.Sub(r.now())
	if d < time.Second {
		return time.Second
	}
	return d
}

// revokeScript writes the key unless the existing entry already outlives the
// new expiry. ARGV[1] is the TTL in milliseconds, 0 meaning no expiry.
var revokeScript = redis.NewScript(`
local cur = redis.call('PTTL', KEYS[1])
local ttl = tonumber(ARGV[1])
if cur == -1 then
	return 0
end
if ttl == 0 then
	redis.call('SET', KEYS[1], 1)
	return 1
end
if cur == -2 or cur < ttl then
	redis.call('SET', KEYS[1], 1, 'PX', ttl)
	return 1
end
return 0
`)

// Revoke records the token, keeping whichever of the stored and new expiries
// is later.
func (r *Redis) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := r.ttl(expiresAt).Milliseconds()
	if err := revokeScript.Run(ctx, r.client, []string{r.key(token)}, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the key exists.
func (r *Redis) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return n > 0, nil
}

// Consume uses SET NX so exactly one caller observes the transition.
func (r *Redis) Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	err := r.client.SetArgs(ctx, r.key(token), 1, redis.SetArgs{
		Mode: "NX",
		TTL:  r.ttl(expiresAt),
	}).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}
