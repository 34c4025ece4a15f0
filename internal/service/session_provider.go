package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

// authStateQueueDepth bounds the ordered event queue between the
// provider callback and the pump. Auth-state changes are rare; the
// buffer only absorbs bursts around sign-in/sign-out.
const authStateQueueDepth = 16

// SessionProviderOptions groups dependencies for SessionProvider.
type SessionProviderOptions struct {
	Provider ports.IdentityProvider
	SignIn   *SignInService
	Mapper   *ClaimMapper
	Policy   domainauth.AllowListPolicy
	Store    *SessionStore
	Logger   *slog.Logger // optional
}

// SessionProvider owns the lifecycle of the session store's provider
// subscription. The provider is a producer of auth-state events; the
// provider's callback enqueues them in emission order onto a channel
// consumed by a single pump goroutine, which makes the store's apply
// order identical to the provider's emission order.
//
// Lifecycle: construct, Start once, Stop once. A stopped provider is
// done for good; reconnection means constructing a new one.
type SessionProvider struct {
	provider ports.IdentityProvider
	signIn   *SignInService
	mapper   *ClaimMapper
	policy   domainauth.AllowListPolicy
	store    *SessionStore
	logger   *slog.Logger

	events      chan *ports.ProviderUser
	done        chan struct{}
	pumpDone    chan struct{}
	unsubscribe func()

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewSessionProvider constructs a SessionProvider.
func NewSessionProvider(opts SessionProviderOptions) (*SessionProvider, error) {
	if opts.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if opts.SignIn == nil {
		return nil, errors.New("sign-in service is required")
	}
	if opts.Mapper == nil {
		return nil, errors.New("claim mapper is required")
	}
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionProvider{
		provider: opts.Provider,
		signIn:   opts.SignIn,
		mapper:   opts.Mapper,
		policy:   opts.Policy,
		store:    opts.Store,
		logger:   logger,
		events:   make(chan *ports.ProviderUser, authStateQueueDepth),
		done:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}, nil
}

// Store exposes the owned session store to consumers.
func (p *SessionProvider) Store() *SessionStore { return p.store }

// Start subscribes to the provider's auth-state stream and launches the
// pump. Exactly one subscription exists per provider instance. A failed
// subscription moves the store into the terminal error state and is
// returned to the caller.
func (p *SessionProvider) Start(ctx context.Context) error {
	var startErr error
	p.startOnce.Do(func() {
		unsubscribe, err := p.provider.SubscribeAuthState(p.enqueue)
		if err != nil {
			authErr := &domainauth.AuthError{
				Kind:    domainauth.KindProviderError,
				Message: "subscribe to auth state: " + err.Error(),
			}
			p.store.Fail(authErr)
			p.logger.ErrorContext(ctx, "auth state subscription failed", "error", err)
			startErr = err
			return
		}
		p.unsubscribe = unsubscribe
		p.started = true
		go p.pump()
		p.logger.InfoContext(ctx, "session provider started", "domain", p.policy.Domain())
	})
	return startErr
}

// Stop releases the subscription and drains the pump. Safe to call on
// every exit path, including while a sign-in is in flight: the
// unsubscribe runs exactly once.
func (p *SessionProvider) Stop() {
	p.stopOnce.Do(func() {
		if p.unsubscribe != nil {
			p.unsubscribe()
		}
		close(p.done)
		if p.started {
			<-p.pumpDone
		}
		p.store.Close()
	})
}

// RequestSignIn delegates to the SignInService and surfaces its
// AuthError via the store's error annotation. The session status itself
// changes only through the provider event that the sign-in (or the
// rejection's forced sign-out) triggers.
func (p *SessionProvider) RequestSignIn(ctx context.Context, req ports.SignInRequest) (*domainauth.Identity, *domainauth.AuthError) {
	p.store.ClearAuthError()
	identity, authErr := p.signIn.SignIn(ctx, req)
	if authErr != nil {
		p.store.SetAuthError(authErr)
		return nil, authErr
	}
	return identity, nil
}

// RequestSignOut delegates to the SignInService, surfacing failures the
// same way as RequestSignIn.
func (p *SessionProvider) RequestSignOut(ctx context.Context) *domainauth.AuthError {
	if authErr := p.signIn.SignOut(ctx); authErr != nil {
		p.store.SetAuthError(authErr)
		return authErr
	}
	return nil
}

// enqueue is the provider callback. It must not block the provider's
// delivery thread for long, but ordering matters more than throughput:
// events queue in arrival order and the pump applies them one by one.
func (p *SessionProvider) enqueue(user *ports.ProviderUser) {
	select {
	case p.events <- user:
	case <-p.done:
	}
}

func (p *SessionProvider) pump() {
	defer close(p.pumpDone)
	for {
		select {
		case user := <-p.events:
			p.store.apply(p.mapEvent(user))
		case <-p.done:
			return
		}
	}
}

// mapEvent turns a provider auth-state event into the next Session.
// A nil payload means signed out. A non-nil payload is admitted only if
// the mapped identity passes the allow-list: an ambient provider session
// from an out-of-domain account (signed in through some other app) is
// revoked rather than admitted, keeping the allow-list invariant
// unconditional.
func (p *SessionProvider) mapEvent(user *ports.ProviderUser) domainauth.Session {
	if user == nil {
		return domainauth.NewUnauthenticatedSession(nil)
	}

	identity, err := p.mapper.MapIdentity(user)
	if err != nil {
		p.logger.Warn("dropping auth event with unmappable claims", "error", err)
		return domainauth.NewUnauthenticatedSession(&domainauth.AuthError{
			Kind:    domainauth.KindProviderError,
			Message: err.Error(),
		})
	}

	if !p.policy.Allows(identity.Email) {
		rejection := p.policy.Rejection(identity.Email)
		if p.signIn.consumeRevoked(identity.Email) {
			// The interactive sign-in path already revoked this session;
			// this event is its echo. One revocation per rejection.
			return domainauth.NewUnauthenticatedSession(rejection)
		}
		p.logger.Warn("revoking out-of-domain provider session from auth event",
			"domain", p.policy.Domain())
		go func() {
			if signOutErr := p.provider.SignOut(context.Background()); signOutErr != nil {
				p.logger.Error("revoke out-of-domain session failed", "error", signOutErr)
			}
		}()
		return domainauth.NewUnauthenticatedSession(rejection)
	}

	return domainauth.NewAuthenticatedSession(identity)
}
