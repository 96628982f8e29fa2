package auth

import "context"

type callerKey struct{}

type requestIDKey struct{}

// caller is the identity a request was authenticated as. key is nil for
// anonymous callers.
type caller struct {
	role string
	key  *APIKey
}

// WithCaller returns a copy of ctx carrying the authenticated role and key.
func WithCaller(ctx context.Context, key *APIKey, role string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller{role: role, key: key})
}

// RoleFromContext returns the caller's role, or "" for unauthenticated requests.
func RoleFromContext(ctx context.Context) string {
	c, _ := ctx.Value(callerKey{}).(caller)
	return c.role
}

// APIKeyFromContext returns the caller's API key, or nil for anonymous and
// unauthenticated requests.
func APIKeyFromContext(ctx context.Context) *APIKey {
	c, _ := ctx.Value(callerKey{}).(caller)
	return c.key
}

// WithRequestID returns a copy of ctx carrying the request ID used for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID, or "" when none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
