package oidc

// Package oidc adapts an OIDC/OAuth2 identity provider to the session
// layer's IdentityProvider port.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/classboard-app/classboard/internal/adapters/authstream"
	"github.com/classboard-app/classboard/internal/ports"
)

// Provider implements ports.IdentityProvider and ports.FlowInitiator
// using OIDC/OAuth2. Completed sign-ins and sign-outs are published on
// the provider's auth-state stream; the session layer learns state
// changes only through that stream.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	stream *authstream.Stream
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string       // optional RP-initiated logout endpoint
	HTTPClient   *http.Client // optional, defaults to a 30s-timeout client
}

// NewProvider creates a new OIDC provider. Discovery runs once at
// construction.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		logoutURL:  config.LogoutURL,
		httpClient: httpClient,
		stream:     authstream.New(),
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// SubscribeAuthState implements ports.IdentityProvider.
func (p *Provider) SubscribeAuthState(cb ports.AuthStateCallback) (func(), error) {
	return p.stream.Subscribe(cb)
}

// Begin starts the login flow and returns the provider auth URL with a
// cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	return authURL, state, nonce, nil
}

// dismissalCodes are callback error codes that mean the user backed out
// of the interactive flow rather than the flow failing.
var dismissalCodes = map[string]struct{}{
	"access_denied":        {},
	"login_required":       {},
	"consent_required":     {},
	"interaction_required": {},
}

// InteractiveSignIn completes the authorization-code flow from the
// provider callback. A dismissed flow resolves (nil, nil). On success
// the new user is published on the auth-state stream before returning.
func (p *Provider) InteractiveSignIn(ctx context.Context, req ports.SignInRequest) (*ports.ProviderUser, error) {
	if req.CallbackError != "" {
		if _, dismissed := dismissalCodes[req.CallbackError]; dismissed {
			return nil, nil
		}
		return nil, fmt.Errorf("provider callback error: %s", req.CallbackError)
	}
	if req.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if req.State == "" {
		return nil, errors.New("state is required")
	}
	if req.Nonce == "" {
		return nil, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.extractClaims(ctx, token, req.Nonce)
	if err != nil {
		return nil, err
	}

	user := &ports.ProviderUser{Claims: claims}
	p.stream.Emit(user)
	return user, nil
}

// SignOut revokes the provider session and publishes the signed-out
// state. Signing out while already signed out succeeds silently.
func (p *Provider) SignOut(ctx context.Context) error {
	if !p.stream.SignedIn() {
		return nil
	}

	if p.logoutURL != "" {
		if err := p.callLogoutEndpoint(ctx); err != nil {
			return err
		}
	}

	p.stream.Emit(nil)
	return nil
}

// Close tears down the auth-state stream.
func (p *Provider) Close() { p.stream.Close() }

// extractClaims verifies the id_token (including the nonce) and decodes
// its full claim document, filling gaps from the userinfo endpoint when
// the id_token lacks an email.
func (p *Provider) extractClaims(ctx context.Context, token *oauth2.Token, expectedNonce string) (map[string]any, error) {
	rawID, err := idTokenFromToken(token)
	if err != nil {
		return nil, err
	}

	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if expectedNonce != "" && idTok.Nonce != expectedNonce {
		return nil, errors.New("invalid nonce")
	}

	claims := make(map[string]any)
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}

	if _, ok := claims["email"]; !ok {
		if fillErr := p.fillFromUserInfo(ctx, token.AccessToken, claims); fillErr != nil {
			return nil, fmt.Errorf("get user info: %w", fillErr)
		}
	}

	return claims, nil
}

// fillFromUserInfo merges userinfo claims into the id_token claims
// without overwriting anything the id_token already carried.
func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, claims map[string]any) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}

	extra := make(map[string]any)
	if claimsErr := ui.Claims(&extra); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}

	mergeMissingClaims(claims, extra)
	return nil
}

// mergeMissingClaims copies entries from src into dst for keys dst does
// not already have.
func mergeMissingClaims(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func (p *Provider) callLogoutEndpoint(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.logoutURL, nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call logout endpoint: %w", err)
	}
	if closeErr := resp.Body.Close(); closeErr != nil {
		return fmt.Errorf("close logout response: %w", closeErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// idTokenFromToken extracts the id_token from the token response.
func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

// generateRandomString generates a cryptographically secure URL-safe
// random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.FlowInitiator    = (*Provider)(nil)
)
