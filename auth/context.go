package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions with keys
// defined in other packages.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// Identity carries the authenticated caller's id and username, as extracted
// from a verified token.
type Identity struct {
	UserID   int
	Username string
}

// NewContextWithIdentity returns a child context carrying the identity.
func NewContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the caller identity set by the JWT middleware.
// The second return value is false if no identity is present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
