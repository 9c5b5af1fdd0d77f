// Package userctx carries the authenticated user id through request contexts.
package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// WithUserID кладёт subject токена в контекст; пустой id считается анонимным.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserID returns the token subject; ok is false for anonymous requests.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}
