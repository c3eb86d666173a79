package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// RequestIDKey is a custom context key type for storing the request ID in context.
type RequestIDKey struct{}

// SessionKey is a custom context key type for storing the caller's Session in context.
type SessionKey struct{}

var (
	// ErrNoSession is returned when no session was attached to the context.
	ErrNoSession = errors.New("missing session")
	// ErrSessionNotFound is returned by a SessionStore for missing or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// WithRequestID returns a new context with a generated request ID set.
// An ID already present in ctx is kept.
func WithRequestID(ctx context.Context) context.Context {
	if id := RequestIDFromCtx(ctx); id != "" {
		return ctx
	}
	return context.WithValue(ctx, RequestIDKey{}, uuid.New().String())
}

// WithRequestIDValue returns a new context carrying the given request ID.
func WithRequestIDValue(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

// RequestIDFromCtx returns the request ID stored in ctx, or "".
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}

// LoggerFromCtx returns a slog.Logger with request_id field if present in context.
// If no request ID is found, it returns the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if reqID := RequestIDFromCtx(ctx); reqID != "" {
		return slog.Default().With("request_id", reqID)
	}
	return slog.Default()
}

// WithSession returns a new context with the provided Session set.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, SessionKey{}, sess)
}

// SessionFromContext retrieves the Session from the context.
func SessionFromContext(ctx context.Context) (*Session, error) {
	sess, ok := ctx.Value(SessionKey{}).(*Session)
	if !ok || sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}
