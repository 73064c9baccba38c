// Package auth carries the caller identity through a request and issues the
// bearer tokens that establish it.
package auth

import "context"

type userIDKey struct{}

// WithUserID returns a copy of ctx that carries the authenticated user id.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey{}).(uint)
	return id, ok && id != 0
}

// CurrentUserID returns the caller's id, or 0 for anonymous callers.
func CurrentUserID(ctx context.Context) uint {
	id, _ := UserIDFromContext(ctx)
	return id
}
