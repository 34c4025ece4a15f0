package auth

// Package auth contains domain-level types for the session layer.
// It is pure and free of framework/adapter concerns.

import "time"

// Status is the authentication state of the current session.
// Exactly one status holds at any time.
type Status string

const (
	// StatusLoading means the provider has not yet delivered its initial
	// auth-state callback. A fresh process always starts here.
	StatusLoading Status = "loading"
	// StatusAuthenticated means a policy-approved identity is signed in.
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated means no identity is signed in.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusError means the subscription to the provider failed or the
	// subsystem is misconfigured. Terminal until an explicit restart.
	StatusError Status = "error"
)

// Identity is the authenticated principal's minimal profile.
// It is an immutable snapshot per sign-in: every provider event replaces
// the whole value, it is never patched in place.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// ErrorKind categorizes an authentication failure.
type ErrorKind string

const (
	// KindDomainNotAllowed: the provider authenticated the user but the
	// email is outside the allow-listed domain. Not retryable without a
	// different account.
	KindDomainNotAllowed ErrorKind = "domain_not_allowed"
	// KindProviderError: transport/config/provider-side failure.
	// Retryable by re-invoking sign-in.
	KindProviderError ErrorKind = "provider_error"
	// KindCancelled: the user dismissed the interactive flow. Classified
	// for diagnostics only; dismissal resolves as no-identity success and
	// never surfaces as a session error.
	KindCancelled ErrorKind = "cancelled"
	// KindConfigurationError: missing or malformed allow-list/provider
	// configuration at startup. Fatal to the subsystem for the process
	// lifetime.
	KindConfigurationError ErrorKind = "configuration_error"
)

// AuthError is a typed authentication failure surfaced to consumers.
type AuthError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *AuthError) Error() string { return string(e.Kind) + ": " + e.Message }

// IsRetryable reports whether re-invoking sign-in can succeed.
func (e *AuthError) IsRetryable() bool { return e.Kind == KindProviderError }

// Session is the current authentication status plus optional identity and
// last error. Invariant: Identity is non-nil iff Status is authenticated.
type Session struct {
	Status   Status     `json:"status"`
	Identity *Identity  `json:"identity,omitempty"`
	Err      *AuthError `json:"error,omitempty"`
}

// NewLoadingSession is the initial session before the provider's first
// callback.
func NewLoadingSession() Session {
	return Session{Status: StatusLoading}
}

// NewAuthenticatedSession wraps a policy-approved identity.
func NewAuthenticatedSession(id Identity) Session {
	return Session{Status: StatusAuthenticated, Identity: &id}
}

// NewUnauthenticatedSession is the signed-out state. err may be nil; a
// non-nil err records the failure that ended or prevented a sign-in
// without changing the status semantics.
func NewUnauthenticatedSession(err *AuthError) Session {
	return Session{Status: StatusUnauthenticated, Err: err}
}

// NewErrorSession is the terminal subscription/configuration failure
// state.
func NewErrorSession(err *AuthError) Session {
	return Session{Status: StatusError, Err: err}
}

// Authenticated reports whether the session holds a signed-in identity.
func (s Session) Authenticated() bool { return s.Status == StatusAuthenticated }

// Resolved reports whether a definitive authentication state is known,
// i.e. the session has left the loading state.
func (s Session) Resolved() bool { return s.Status != StatusLoading }

// Profile is the dashboard-facing document for an identity, resolved
// through the read-only document store.
type Profile struct {
	IdentityID  string    `json:"identity_id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}
