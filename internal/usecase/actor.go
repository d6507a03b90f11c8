package usecase

import "context"

type userIDKey struct{}

// WithUserID attaches the signed-in user so activities can be attributed.
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) *string {
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return nil
	}
	return &id
}
