// Package middleware adapts tenantauth.Engine to net/http.
//
// # Chain
//
// Authenticated routes run [Authenticate], then [Admit], then optionally
// [RequireRole], then the handler. [Admit] keys on the matched ServeMux
// pattern, so the chain must wrap the per-route handler rather than the mux.
//
//	mux.Handle("GET /api/v1/users", middleware.Chain(
//		middleware.Authenticate(engine),
//		middleware.Admit(engine),
//	)(listUsers))
//
// # Errors
//
// [StatusCode] maps Engine errors onto HTTP status codes and [WriteError]
// renders them as {"detail": "..."} without leaking internal causes.
//
// # Service plumbing
//
// [RequestID], [AccessLog], [Recover] and [Throttle] are transport concerns
// with no auth semantics. Throttle is a per-client-IP token bucket for the
// pre-authentication routes where no Principal exists yet.
package middleware
