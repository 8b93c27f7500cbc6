// Package jwt is the token codec and issuer: it signs claim sets into compact
// JWS strings, verifies them back with distinct failure kinds, and mints the
// access/refresh pair.
//
// # Failure kinds
//
// [Codec.Decode] checks the signature first, then structure, then expiry, and
// reports exactly one of [ErrSignatureInvalid], [ErrMalformed] or [ErrExpired].
// Expiry is compared against the codec clock with no leeway.
//
// # What this package must NOT do
//
//   - Consult revocation state or user records; that is the validator's job.
//   - Decide token kind acceptance; Decode returns any well-signed claim set.
package jwt
