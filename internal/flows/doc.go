// Package flows contains pure-function orchestrators for the Engine's token
// operations.
//
// Each flow function (RunValidate, RunRefresh, RunLogin, RunLogout) accepts a
// typed dependency struct and returns a result carrying a failure kind. The
// Engine maps kinds to public errors, metrics and audit events.
//
// # Architecture boundaries
//
// Flow functions coordinate the token codec, the revocation registry and the
// user store. They do NOT own any of these resources; ownership stays with the
// Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import tenantauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
