package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextUserIDKey  contextKey = "userID"
	ContextSessionKey contextKey = "session"
)

// SessionData is what the session middleware needs to authorize a request.
type SessionData struct {
	UserID       string
	Name         string
	Role         string
	ContractorID string
	Language     string
	SiteMeasure  bool
	ExpiresAt    time.Time
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

func GetSessionFromContext(ctx context.Context) (SessionData, bool) {
	s, ok := ctx.Value(ContextSessionKey).(SessionData)
	return s, ok
}

// WithSession stores the session and its user id on ctx.
func WithSession(ctx context.Context, s SessionData) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, s.UserID)
	return context.WithValue(ctx, ContextSessionKey, s)
}

func GenerateUUID() string {
	return uuid.New().String()
}
