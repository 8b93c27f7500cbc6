// Package tenantauth is the security and admission core of a multi-tenant API:
// it issues, validates, rotates and revokes JWT bearer tokens, derives the
// tenant and role of a request from its access token, and applies an exact
// per-principal sliding-window rate limit.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tenantauth is the public surface. It exposes [Engine], [Builder], [Config],
// the sentinel errors and value types ([Principal], [TokenPair], [Admission]).
// Flow orchestration, rate windows and audit dispatch live under internal/.
// Token encoding lives in jwt/, hashing in password/ and the revocation
// registry in revocation/.
//
// # What this package must NOT do
//
//   - Own user or tenant records; they are reached through [UserStore].
//   - Coordinate rate limits across processes.
//   - Import any sub-package that re-imports tenantauth (no import cycles).
//
// # Performance contract
//
// ValidateAccess is the hot path. It performs no I/O. ValidateRefresh, Refresh
// and Logout do one registry lookup; Login and Refresh do one user store read.
package tenantauth
