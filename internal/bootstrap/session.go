package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/classboard-app/classboard/config"
	"github.com/classboard-app/classboard/internal/adapters/devauth"
	"github.com/classboard-app/classboard/internal/adapters/oidc"
	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
	"github.com/classboard-app/classboard/internal/service"
)

// SessionLayerConfig contains configuration for the session layer.
type SessionLayerConfig struct {
	Session config.SessionConfig
	Logger  *slog.Logger
}

// SessionLayer bundles the session store, the provider subscription
// owner, and the sign-in flow initiator for the HTTP surface.
type SessionLayer struct {
	Store    *service.SessionStore
	Sessions *service.SessionProvider
	Flow     ports.FlowInitiator

	// degraded is set when the allow-list configuration is absent or
	// malformed. The store is failed at build time and the provider
	// subscription is never started, so the session stays in the error
	// state for the life of the process.
	degraded bool
}

// Start begins consuming provider auth-state events. A degraded layer
// never subscribes; its store already carries the configuration error.
func (l *SessionLayer) Start(ctx context.Context) error {
	if l.degraded {
		return nil
	}
	return l.Sessions.Start(ctx)
}

// Stop tears down the subscription and closes the store. Safe to call
// once, in any state.
func (l *SessionLayer) Stop() {
	if l.degraded {
		l.Store.Close()
		return
	}
	l.Sessions.Stop()
}

// BuildSessionLayer wires the session store, sign-in service, and
// session provider from configuration.
//
// A missing or malformed SESSION_ALLOWED_DOMAIN is not fatal: the layer
// comes up with its store in the error state and a deny-all policy, so
// no email can ever authenticate by accident. Provider or claim-mapper
// misconfiguration is fatal; those cannot be represented as a session
// state the dashboard can act on.
func BuildSessionLayer(cfg SessionLayerConfig) (*SessionLayer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := service.NewSessionStore()

	policy, perr := domainauth.NewAllowListPolicy(cfg.Session.AllowedDomain)
	degraded := perr != nil
	if degraded {
		logger.Warn("allow-list configuration invalid, session layer starts failed",
			"error", perr.Message)
		store.Fail(perr)
		// Zero-value policy rejects every email.
		policy = domainauth.AllowListPolicy{}
	}

	provider, flow, err := buildIdentityProvider(cfg.Session, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	mapper, err := service.NewClaimMapper(service.ClaimMapperOptions{
		IDExpr:          cfg.Session.Claims.IDExpr,
		EmailExpr:       cfg.Session.Claims.EmailExpr,
		DisplayNameExpr: cfg.Session.Claims.DisplayNameExpr,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build claim mapper: %w", err)
	}

	signIn, err := service.NewSignInService(service.SignInServiceOptions{
		Provider: provider,
		Mapper:   mapper,
		Policy:   policy,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build sign-in service: %w", err)
	}

	sessions, err := service.NewSessionProvider(service.SessionProviderOptions{
		Provider: provider,
		SignIn:   signIn,
		Mapper:   mapper,
		Policy:   policy,
		Store:    store,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build session provider: %w", err)
	}

	return &SessionLayer{
		Store:    store,
		Sessions: sessions,
		Flow:     flow,
		degraded: degraded,
	}, nil
}

// buildIdentityProvider selects the identity provider by auth mode.
//
//nolint:ireturn // callers consume these as ports.
func buildIdentityProvider(
	cfg config.SessionConfig,
	logger *slog.Logger,
) (ports.IdentityProvider, ports.FlowInitiator, error) {
	switch cfg.Mode {
	case config.AuthModeDev:
		logger.Warn("dev auth mode enabled, do not use in production",
			"user", cfg.DevAuth.Email)
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:      cfg.DevAuth.UserID,
			Email:       cfg.DevAuth.Email,
			DisplayName: cfg.DevAuth.DisplayName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build dev auth provider: %w", err)
		}
		return prov, prov, nil

	case config.AuthModeOIDC:
		oauth := cfg.OIDC
		if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
			return nil, nil, errors.New(
				"oidc auth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID, and OAUTH_CLIENT_SECRET")
		}
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build OIDC provider: %w", err)
		}
		return prov, prov, nil

	default:
		return nil, nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
