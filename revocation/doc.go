// Package revocation is the registry of refresh tokens that have been consumed
// by rotation or explicitly invalidated.
//
// Tokens are keyed by the SHA-256 digest of their compact string, so the
// registry never holds a usable credential. Each entry remembers the token's
// own expiry: once a token is past exp it fails signature-expiry checking
// before any lookup happens, so the entry can be dropped without changing
// behavior.
//
// # Backends
//
//   - [Memory]: process-local map; the default.
//   - [Redis]: SET NX with TTL; entries expire with the token.
//
// # What this package must NOT do
//
//   - Decode or validate tokens; callers pass the expiry they already decoded.
//   - Import the root tenantauth package.
package revocation
