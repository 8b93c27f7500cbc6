// Package password implements the credential hasher: salted one-way hashing
// and verification of user passwords.
//
// # Schemes
//
//   - [Bcrypt]: default; cost defaults to bcrypt.DefaultCost.
//   - [Argon2]: argon2id in PHC string format.
//
// Both produce a different string on every call for the same input because a
// fresh random salt is drawn each time. Verify never panics or errors on a
// malformed hash; it reports false.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Enforce password policy (length, complexity); that belongs to request validation.
//   - Import any other tenantauth package.
package password
