package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	mockauth "github.com/classboard-app/classboard/internal/mocks/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

func newTestSessionProvider(t *testing.T, provider *mockauth.FakeIdentityProvider) *SessionProvider {
	t.Helper()

	mapper, err := NewClaimMapper(ClaimMapperOptions{})
	require.NoError(t, err)
	policy, perr := domainauth.NewAllowListPolicy("example.com")
	require.Nil(t, perr)

	signIn, err := NewSignInService(SignInServiceOptions{
		Provider: provider,
		Mapper:   mapper,
		Policy:   policy,
	})
	require.NoError(t, err)

	sessions, err := NewSessionProvider(SessionProviderOptions{
		Provider: provider,
		SignIn:   signIn,
		Mapper:   mapper,
		Policy:   policy,
		Store:    NewSessionStore(),
	})
	require.NoError(t, err)
	return sessions
}

// waitForStatus reads watch snapshots until one matches the wanted
// status. Intermediate snapshots may be skipped by the latest-wins
// buffer, so only the target status is asserted.
func waitForStatus(t *testing.T, ch <-chan domainauth.Session, want domainauth.Status) domainauth.Session {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			require.True(t, ok, "watch channel closed before status %q", want)
			if s.Status == want {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %q", want)
		}
	}
}

func TestNewSessionProvider_RequiredDependencies(t *testing.T) {
	_, err := NewSessionProvider(SessionProviderOptions{})
	require.Error(t, err)
}

func TestSessionProvider_StartFailure_FailsStore(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	provider.SubscribeErr = errors.New("stream unavailable")
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	err := sessions.Start(context.Background())
	require.Error(t, err)

	current := sessions.Store().Current()
	assert.Equal(t, domainauth.StatusError, current.Status)
	require.NotNil(t, current.Err)
	assert.Equal(t, domainauth.KindProviderError, current.Err.Kind)
}

func TestSessionProvider_AppliesEventsInOrder(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	ch, unsubscribe := sessions.Store().Watch()
	defer unsubscribe()

	provider.Emit(nil)
	waitForStatus(t, ch, domainauth.StatusUnauthenticated)

	provider.Emit(mockauth.UserWithEmail("u1", "u1@example.com", "User One"))
	got := waitForStatus(t, ch, domainauth.StatusAuthenticated)
	require.NotNil(t, got.Identity)
	assert.Equal(t, "u1", got.Identity.ID)

	provider.Emit(nil)
	got = waitForStatus(t, ch, domainauth.StatusUnauthenticated)
	assert.Nil(t, got.Identity)
}

func TestSessionProvider_RevokesOutOfDomainAmbientSession(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	ch, unsubscribe := sessions.Store().Watch()
	defer unsubscribe()

	// An ambient provider session from another app, outside the domain.
	provider.Emit(mockauth.UserWithEmail("u2", "u2@other.com", "Outsider"))

	got := waitForStatus(t, ch, domainauth.StatusUnauthenticated)
	require.NotNil(t, got.Err)
	assert.Equal(t, domainauth.KindDomainNotAllowed, got.Err.Kind)

	// The provider session gets revoked asynchronously.
	require.Eventually(t, func() bool {
		return provider.SignOutCalls() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionProvider_RejectedSignInRevokesOnlyOnce(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	provider.DefaultUser = mockauth.UserWithEmail("u2", "u2@other.com", "Outsider")
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	ch, unsubscribe := sessions.Store().Watch()
	defer unsubscribe()

	// The interactive path rejects the out-of-domain account and revokes
	// the provider session itself.
	identity, authErr := sessions.RequestSignIn(context.Background(), ports.SignInRequest{Code: "c"})
	assert.Nil(t, identity)
	require.NotNil(t, authErr)
	assert.Equal(t, domainauth.KindDomainNotAllowed, authErr.Kind)
	assert.Equal(t, 1, provider.SignOutCalls())

	// The auth event for that same sign-in arrives afterwards. It must
	// not trigger a second revocation.
	provider.Emit(provider.DefaultUser)
	got := waitForStatus(t, ch, domainauth.StatusUnauthenticated)
	require.NotNil(t, got.Err)
	assert.Equal(t, domainauth.KindDomainNotAllowed, got.Err.Kind)
	assert.Equal(t, 1, provider.SignOutCalls())

	// A later ambient out-of-domain session is a fresh rejection and is
	// revoked as usual.
	provider.Emit(mockauth.UserWithEmail("u3", "u3@other.com", "Another"))
	waitForStatus(t, ch, domainauth.StatusUnauthenticated)
	require.Eventually(t, func() bool {
		return provider.SignOutCalls() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionProvider_UnmappableEventYieldsUnauthenticated(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	ch, unsubscribe := sessions.Store().Watch()
	defer unsubscribe()

	provider.Emit(&ports.ProviderUser{Claims: map[string]any{"sub": "u1"}})

	got := waitForStatus(t, ch, domainauth.StatusUnauthenticated)
	require.NotNil(t, got.Err)
	assert.Equal(t, domainauth.KindProviderError, got.Err.Kind)
}

func TestSessionProvider_Stop_UnsubscribesExactlyOnce(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	sessions := newTestSessionProvider(t, provider)

	require.NoError(t, sessions.Start(context.Background()))
	require.True(t, provider.Subscribed())

	sessions.Stop()
	sessions.Stop()

	assert.Equal(t, 1, provider.Unsubscribes())
	assert.False(t, provider.Subscribed())

	// The store is released with the provider.
	ch, _ := sessions.Store().Watch()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSessionProvider_StopWithoutStart(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	sessions := newTestSessionProvider(t, provider)

	// Must not hang waiting for a pump that never ran.
	sessions.Stop()
	assert.Zero(t, provider.Unsubscribes())
}

func TestSessionProvider_RequestSignIn_RecordsFailure(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	provider.SignInFunc = func(context.Context, ports.SignInRequest) (*ports.ProviderUser, error) {
		return nil, errors.New("token exchange failed")
	}
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	identity, authErr := sessions.RequestSignIn(context.Background(), ports.SignInRequest{Code: "c"})
	assert.Nil(t, identity)
	require.NotNil(t, authErr)

	current := sessions.Store().Current()
	require.NotNil(t, current.Err)
	assert.Equal(t, domainauth.KindProviderError, current.Err.Kind)
}

func TestSessionProvider_RequestSignIn_ClearsPreviousFailure(t *testing.T) {
	provider := mockauth.NewFakeIdentityProvider()
	provider.DefaultUser = mockauth.UserWithEmail("u1", "u1@example.com", "User One")
	sessions := newTestSessionProvider(t, provider)
	defer sessions.Stop()

	require.NoError(t, sessions.Start(context.Background()))

	sessions.Store().SetAuthError(&domainauth.AuthError{Kind: domainauth.KindProviderError, Message: "stale"})

	identity, authErr := sessions.RequestSignIn(context.Background(), ports.SignInRequest{Code: "c"})
	require.Nil(t, authErr)
	require.NotNil(t, identity)

	assert.Nil(t, sessions.Store().Current().Err)
}
