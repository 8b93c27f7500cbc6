package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/tenantauth"
)

// Admit applies the per-principal sliding-window limit. The operation key is
// "<METHOD> <pattern>" so every user of a route shares one budget per
// principal regardless of path parameters. It must run after [Authenticate].
func Admit(engine *tenantauth.Engine) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := tenantauth.PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, tenantauth.ErrUnauthenticated)
				return
			}

			op := OperationKey(r)
			ctx := tenantauth.WithOperation(r.Context(), op)
			adm, err := engine.Admit(ctx, p.UserID, op)

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(adm.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(adm.Remaining))
			if !adm.ResetAt.IsZero() {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(adm.ResetAt.Unix(), 10))
			}
			if err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperationKey returns "<METHOD> <pattern>" for r. The pattern is the one
// ServeMux matched, with any method prefix removed; the raw path is used when
// no pattern is set.
func OperationKey(r *http.Request) string {
	path := r.Pattern
	if path == "" {
		path = r.URL.Path
	} else if i := strings.IndexByte(path, ' '); i >= 0 {
		path = strings.TrimSpace(path[i+1:])
	}
	return r.Method + " " + path
}
