package session

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// Session identifies the signed-in user for a single request. It is passed
// explicitly into every garden operation.
type Session struct {
	UserID string
	Email  string
}

// FromToken builds a Session from verified Firebase ID token claims.
func FromToken(token *auth.Token) *Session {
	if token == nil {
		return nil
	}
	s := &Session{UserID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		s.Email = email
	}
	return s
}

// SignedIn reports whether s carries a usable user id.
func (s *Session) SignedIn() bool {
	return s != nil && s.UserID != ""
}

type contextKey string

const sessionContextKey = contextKey("session")

// WithContext returns a copy of ctx carrying s.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// ForContext finds the session stored by the auth middleware.
func ForContext(ctx context.Context) *Session {
	raw, _ := ctx.Value(sessionContextKey).(*Session)
	return raw
}
