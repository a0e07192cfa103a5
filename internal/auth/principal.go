// Package auth carries the authenticated principal through request context and
// gates routes on explicit role predicates composed at route registration.
package auth

import "context"

// Principal is the authenticated caller extracted from a session token.
type Principal struct {
	Email string
	Role  string
	UID   string
}

type contextKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal set by the bearer middleware, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
