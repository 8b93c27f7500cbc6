package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/tenantauth"
)

// PrincipalFromContext returns the Principal stored by [Authenticate].
func PrincipalFromContext(ctx context.Context) (tenantauth.Principal, bool) {
	return tenantauth.PrincipalFromContext(ctx)
}

// Authenticate resolves the Authorization header into a Principal and stores
// it in the request context. Any failure is answered with 401.
func Authenticate(engine *tenantauth.Engine) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, tenantauth.ErrEngineNotReady)
				return
			}

			p, err := engine.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := tenantauth.WithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals that do not hold role with 403. It must run
// after [Authenticate].
func RequireRole(engine *tenantauth.Engine, role tenantauth.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := tenantauth.PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, tenantauth.ErrUnauthenticated)
				return
			}
			if err := engine.CheckRole(r.Context(), p, role); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
