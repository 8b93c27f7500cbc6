// Package rate implements the in-process exact sliding-window limiter used for
// per-identity request admission.
//
// # Window semantics
//
// Each key owns the timestamps of its admitted requests inside the trailing
// window. A request at now is admitted when fewer than Limit timestamps satisfy
// now-ts < Window. Rejected requests are not recorded, so a client that keeps
// retrying does not extend its own lockout.
//
// # What this package must NOT do
//
//   - Coordinate across processes; counters are local to one Limiter.
//   - Know about principals or operations; keys are opaque.
//   - Be imported outside the tenantauth module.
package rate
