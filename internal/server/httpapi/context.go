package httpapi

import (
	"context"

	"github.com/dmitrijs2005/agrocms/internal/server/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func sessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

func withSession(ctx context.Context, user *models.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sessionID)
}
