package auth

// Package auth contains simple hand-written test doubles for the
// session-layer ports. These are lightweight and suitable for unit
// tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	"github.com/classboard-app/classboard/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*FakeIdentityProvider)(nil)
	_ ports.FlowInitiator    = (*FakeIdentityProvider)(nil)
)

// FakeIdentityProvider simulates an identity provider for tests with
// deterministic state/nonce handling and synchronous event delivery.
// Tests drive auth-state changes explicitly through Emit, so event
// ordering is under test control.
type FakeIdentityProvider struct {
	// Overrides; when nil, deterministic defaults apply.
	BeginFunc   func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	SignInFunc  func(ctx context.Context, req ports.SignInRequest) (*ports.ProviderUser, error)
	SignOutFunc func(ctx context.Context) error

	// SubscribeErr makes SubscribeAuthState fail.
	SubscribeErr error

	// DefaultUser is returned by InteractiveSignIn when SignInFunc is nil.
	DefaultUser *ports.ProviderUser

	AuthURL string

	mu           sync.Mutex
	cb           ports.AuthStateCallback
	beginCalls   int
	signOutCalls int
	unsubscribes int
}

// NewFakeIdentityProvider creates a FakeIdentityProvider with sensible defaults.
func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{
		AuthURL: "https://fake-idp/auth",
		DefaultUser: &ports.ProviderUser{
			Claims: map[string]any{
				"sub":   "fake-user-1",
				"email": "fake.user@example.com",
				"name":  "Fake User",
			},
		},
	}
}

func (f *FakeIdentityProvider) SubscribeAuthState(cb ports.AuthStateCallback) (func(), error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}

	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cb = nil
		f.unsubscribes++
	}, nil
}

func (f *FakeIdentityProvider) InteractiveSignIn(ctx context.Context, req ports.SignInRequest) (*ports.ProviderUser, error) {
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, req)
	}
	if req.CallbackError != "" {
		// Treat every callback error as a dismissal by default.
		return nil, nil
	}
	return f.DefaultUser, nil
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()

	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	return nil
}

func (f *FakeIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if f.BeginFunc != nil {
		return f.BeginFunc(ctx, in)
	}

	f.mu.Lock()
	f.beginCalls++
	n := f.beginCalls
	f.mu.Unlock()

	authURL := f.AuthURL
	if authURL == "" {
		authURL = "https://fake-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

// Emit delivers an auth-state event to the subscribed callback, if any.
// A nil user means signed out.
func (f *FakeIdentityProvider) Emit(user *ports.ProviderUser) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()

	if cb != nil {
		cb(user)
	}
}

// Subscribed reports whether a callback is currently registered.
func (f *FakeIdentityProvider) Subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

// SignOutCalls returns how many times SignOut was invoked.
func (f *FakeIdentityProvider) SignOutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOutCalls
}

// Unsubscribes returns how many times the unsubscribe function ran.
func (f *FakeIdentityProvider) Unsubscribes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}

// UserWithEmail builds a ProviderUser carrying standard claims for the
// given email.
func UserWithEmail(id, email, name string) *ports.ProviderUser {
	return &ports.ProviderUser{
		Claims: map[string]any{
			"sub":   id,
			"email": email,
			"name":  name,
		},
	}
}
