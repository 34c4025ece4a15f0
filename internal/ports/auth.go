package ports

// Package ports defines interfaces (hexagonal ports) for the session
// layer. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
)

// ProviderUser is the raw principal pushed by an identity provider.
// Claims is the provider's claim document as decoded JSON; the claim
// mapper extracts the application Identity from it, so the core never
// depends on any provider's concrete claim shape.
type ProviderUser struct {
	Claims map[string]any
}

// AuthStateCallback receives auth-state-change events. A nil user means
// the provider session ended (signed out).
type AuthStateCallback func(user *ProviderUser)

// SignInRequest carries the inputs needed to complete an interactive
// sign-in. For redirect-based providers these arrive on the callback
// request; in-process providers ignore them.
type SignInRequest struct {
	Code  string
	State string
	Nonce string
	// CallbackError is the provider's error code when the flow did not
	// produce an authorization code (e.g. the user dismissed the consent
	// screen).
	CallbackError string
}

// IdentityProvider is the narrow capability interface over a third-party
// identity provider. The core depends only on this shape.
type IdentityProvider interface {
	// SubscribeAuthState registers cb on the provider's auth-state-change
	// stream and returns the unsubscribe function. The provider delivers
	// the current state asynchronously after subscribing, then every
	// subsequent change, in emission order.
	SubscribeAuthState(cb AuthStateCallback) (unsubscribe func(), err error)

	// InteractiveSignIn completes the provider's interactive sign-in flow.
	// A dismissed flow resolves (nil, nil): a cancellation, not a failure.
	InteractiveSignIn(ctx context.Context, req SignInRequest) (*ProviderUser, error)

	// SignOut revokes the provider session. Idempotent: signing out while
	// already signed out succeeds silently.
	SignOut(ctx context.Context) error
}

// BeginInput carries inputs for initiating a redirect-based auth flow.
type BeginInput struct {
	RedirectURL string
}

// FlowInitiator starts a redirect-based sign-in flow. Only the HTTP
// layer uses it; in-process providers implement it trivially.
type FlowInitiator interface {
	// Begin returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
}

// DocumentStore resolves dashboard documents for an identity. It is
// read-only from the session layer's perspective; ownership of the data
// lives with the main dashboard application.
type DocumentStore interface {
	// GetRole returns the role recorded for the identity. A missing
	// document yields RoleUnrecognized with a nil error: absence of
	// configuration is a terminal fallback state, not a failure.
	GetRole(ctx context.Context, identityID string) (domainauth.Role, error)

	// GetProfile returns the identity's profile document, or a NotFound
	// error when none exists.
	GetProfile(ctx context.Context, identityID string) (*domainauth.Profile, error)
}

// CacheRepository is the byte-oriented cache used to front the document
// store.
type CacheRepository interface {
	// Get returns nil with a nil error when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Health(ctx context.Context) error
}
