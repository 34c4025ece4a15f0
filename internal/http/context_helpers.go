package httpx

import (
	"context"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions
// across packages. Centralized here so all handlers and middleware use
// the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the session
// snapshot the route guard admitted.
func SetSessionInContext(ctx context.Context, session domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the guarded session snapshot and whether
// one is present.
func SessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(domainauth.Session); ok {
		return session, true
	}
	return domainauth.Session{}, false
}
