package tenantauth

import "context"

type principalContextKey struct{}
type operationContextKey struct{}

// WithPrincipal stores p in ctx. Middleware calls it after a successful
// [Engine.Resolve].
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the Principal stored by [WithPrincipal].
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// WithOperation tags ctx with the operation key used for admission and audit.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationContextKey{}, op)
}

func operationFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	op, _ := ctx.Value(operationContextKey{}).(string)
	return op
}
