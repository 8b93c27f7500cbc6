// Package httpapi is the tenantauthd HTTP surface: tenant registration, the
// token endpoints and tenant-scoped user management on top of a
// [tenantauth.Engine].
//
// Routes:
//
//	GET    /health
//	POST   /auth/register
//	POST   /auth/login
//	POST   /auth/refresh
//	POST   /auth/logout                  (authenticated)
//	GET    /api/v1/users                 (authenticated, admitted)
//	POST   /api/v1/users                 (admin)
//	GET    /api/v1/users/{id}            (same tenant)
//	PUT    /api/v1/users/{id}            (same tenant, admin or self)
//	PATCH  /api/v1/users/{id}            (same tenant, admin or self)
//	DELETE /api/v1/users/{id}            (same tenant, admin)
//	GET    /api/v1/admin/tenants         (admin)
//	GET    /api/v1/admin/stats           (admin)
//	GET    /metrics                      (when a metrics handler is set)
//
// The /auth routes are throttled per client IP. Everything under /api/v1
// passes Authenticate then Admit, so each principal gets one sliding-window
// budget per route.
package httpapi
