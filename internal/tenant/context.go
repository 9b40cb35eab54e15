package tenant

import "context"

type contextKey struct{}

// DefaultDomain is used when a caller has no explicit tenant scope.
const DefaultDomain = "carbon.super"

// WithDomain returns a context scoped to the given tenant domain.
func WithDomain(ctx context.Context, domain string) context.Context {
	if domain == "" {
		domain = DefaultDomain
	}
	return context.WithValue(ctx, contextKey{}, domain)
}

// FromContext extracts the tenant domain from the context.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultDomain
}
