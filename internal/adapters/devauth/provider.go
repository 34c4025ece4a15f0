package devauth

// Package devauth provides a config-driven, in-process IdentityProvider
// for local development. It short-circuits the interactive flow by
// redirecting straight back to our own callback with locally generated
// state and nonce; InteractiveSignIn then returns the configured
// identity without contacting any IdP.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/classboard-app/classboard/internal/adapters/authstream"
	"github.com/classboard-app/classboard/internal/ports"
)

// Config controls the dev auth provider identity.
type Config struct {
	UserID      string
	Email       string
	DisplayName string
}

// Provider implements ports.IdentityProvider and ports.FlowInitiator
// for local development.
type Provider struct {
	claims map[string]any
	stream *authstream.Stream
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	return &Provider{
		claims: map[string]any{
			"sub":   cfg.UserID,
			"email": cfg.Email,
			"name":  cfg.DisplayName,
		},
		stream: authstream.New(),
	}, nil
}

// SubscribeAuthState implements ports.IdentityProvider.
func (p *Provider) SubscribeAuthState(cb ports.AuthStateCallback) (func(), error) {
	return p.stream.Subscribe(cb)
}

// Begin returns a local callback URL with freshly generated state and
// nonce, matching the shape the HTTP callback handler expects.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// InteractiveSignIn returns the configured identity and publishes it on
// the auth-state stream. A callback error simulates dismissal the same
// way a real provider would report it.
func (p *Provider) InteractiveSignIn(_ context.Context, req ports.SignInRequest) (*ports.ProviderUser, error) {
	if req.CallbackError != "" {
		return nil, nil
	}

	claims := make(map[string]any, len(p.claims))
	for k, v := range p.claims {
		claims[k] = v
	}
	user := &ports.ProviderUser{Claims: claims}
	p.stream.Emit(user)
	return user, nil
}

// SignOut publishes the signed-out state. Always succeeds; there is no
// remote session to revoke.
func (p *Provider) SignOut(context.Context) error {
	if !p.stream.SignedIn() {
		return nil
	}
	p.stream.Emit(nil)
	return nil
}

// Close tears down the auth-state stream.
func (p *Provider) Close() { p.stream.Close() }

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.FlowInitiator    = (*Provider)(nil)
)
