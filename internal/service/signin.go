package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

// SignInServiceOptions groups dependencies for SignInService.
type SignInServiceOptions struct {
	Provider ports.IdentityProvider
	Mapper   *ClaimMapper
	Policy   domainauth.AllowListPolicy
	Logger   *slog.Logger // optional
}

// SignInService orchestrates interactive sign-in and sign-out against
// the identity provider and enforces the domain allow-list. It never
// writes session state directly: both operations trigger the provider's
// auth-state stream, which is the sole path by which the session store
// learns the new state.
type SignInService struct {
	provider ports.IdentityProvider
	mapper   *ClaimMapper
	policy   domainauth.AllowListPolicy
	logger   *slog.Logger

	// revoked counts provider sessions revoked on the interactive path,
	// keyed by normalized email. The session provider's event pump
	// consumes these so the ambient auth event for a rejection it just
	// handled does not trigger a second revocation.
	mu      sync.Mutex
	revoked map[string]int
}

// NewSignInService constructs a new SignInService.
func NewSignInService(opts SignInServiceOptions) (*SignInService, error) {
	if opts.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if opts.Mapper == nil {
		return nil, errors.New("claim mapper is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SignInService{
		provider: opts.Provider,
		mapper:   opts.Mapper,
		policy:   opts.Policy,
		logger:   logger,
	}, nil
}

// SignIn completes the provider's interactive flow and applies the
// allow-list policy.
//
// Outcomes:
//   - (identity, nil): policy-approved sign-in.
//   - (nil, nil): the user dismissed the flow; a cancellation, not a
//     failure, and the session is left unchanged.
//   - (nil, *AuthError): typed failure. An out-of-domain account yields
//     KindDomainNotAllowed only after the provider session has been
//     revoked, so no ambient authenticated provider session outlives the
//     policy check.
func (s *SignInService) SignIn(ctx context.Context, req ports.SignInRequest) (*domainauth.Identity, *domainauth.AuthError) {
	attempt := uuid.NewString()

	user, err := s.provider.InteractiveSignIn(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "interactive sign-in failed", "attempt", attempt, "error", err)
		return nil, &domainauth.AuthError{Kind: domainauth.KindProviderError, Message: err.Error()}
	}
	if user == nil {
		s.logger.InfoContext(ctx, "sign-in dismissed by user", "attempt", attempt)
		return nil, nil
	}

	identity, err := s.mapper.MapIdentity(user)
	if err != nil {
		s.logger.WarnContext(ctx, "claim mapping failed", "attempt", attempt, "error", err)
		return nil, &domainauth.AuthError{Kind: domainauth.KindProviderError, Message: err.Error()}
	}

	if !s.policy.Allows(identity.Email) {
		// Mandatory two-step: revoke the provider session first, then
		// surface the rejection.
		if signOutErr := s.provider.SignOut(ctx); signOutErr != nil {
			s.logger.ErrorContext(ctx, "revoking out-of-domain provider session failed",
				"attempt", attempt, "error", signOutErr)
			return nil, &domainauth.AuthError{
				Kind:    domainauth.KindProviderError,
				Message: "revoke rejected provider session: " + signOutErr.Error(),
			}
		}
		s.noteRevoked(identity.Email)
		s.logger.InfoContext(ctx, "sign-in rejected by allow-list",
			"attempt", attempt, "domain", s.policy.Domain())
		return nil, s.policy.Rejection(identity.Email)
	}

	s.logger.InfoContext(ctx, "sign-in completed", "attempt", attempt, "identity_id", identity.ID)
	return &identity, nil
}

// SignOut revokes the provider session. Idempotent: signing out while
// already signed out succeeds silently.
func (s *SignInService) SignOut(ctx context.Context) *domainauth.AuthError {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "sign-out failed", "error", err)
		return &domainauth.AuthError{Kind: domainauth.KindProviderError, Message: err.Error()}
	}
	return nil
}

func (s *SignInService) noteRevoked(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked == nil {
		s.revoked = make(map[string]int)
	}
	s.revoked[normalizeEmail(email)]++
}

// consumeRevoked reports whether a revocation was recorded for the
// email and, if so, consumes it. Each interactive rejection covers
// exactly one ambient auth event.
func (s *SignInService) consumeRevoked(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	if s.revoked[key] == 0 {
		return false
	}
	s.revoked[key]--
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
