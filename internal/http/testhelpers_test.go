package httpx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	mockauth "github.com/classboard-app/classboard/internal/mocks/auth"
	"github.com/classboard-app/classboard/internal/service"
)

// sessionFixture wires a real session layer around the fake identity
// provider so handler tests exercise the same plumbing production uses.
type sessionFixture struct {
	provider *mockauth.FakeIdentityProvider
	sessions *service.SessionProvider
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	provider := mockauth.NewFakeIdentityProvider()

	mapper, err := service.NewClaimMapper(service.ClaimMapperOptions{})
	require.NoError(t, err)
	policy, perr := domainauth.NewAllowListPolicy("example.com")
	require.Nil(t, perr)

	signIn, err := service.NewSignInService(service.SignInServiceOptions{
		Provider: provider,
		Mapper:   mapper,
		Policy:   policy,
	})
	require.NoError(t, err)

	sessions, err := service.NewSessionProvider(service.SessionProviderOptions{
		Provider: provider,
		SignIn:   signIn,
		Mapper:   mapper,
		Policy:   policy,
		Store:    service.NewSessionStore(),
	})
	require.NoError(t, err)

	require.NoError(t, sessions.Start(context.Background()))
	t.Cleanup(sessions.Stop)

	return &sessionFixture{provider: provider, sessions: sessions}
}

func (f *sessionFixture) waitForStatus(t *testing.T, want domainauth.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.sessions.Store().Current().Status == want
	}, 2*time.Second, 5*time.Millisecond, "waiting for session status %q", want)
}

// signInAs pushes an authenticated provider event and waits for the
// store to apply it.
func (f *sessionFixture) signInAs(t *testing.T, id, email string) {
	t.Helper()
	f.provider.Emit(mockauth.UserWithEmail(id, email, "Test User"))
	f.waitForStatus(t, domainauth.StatusAuthenticated)
}

// resolveSignedOut pushes the provider's signed-out state so the
// session leaves loading.
func (f *sessionFixture) resolveSignedOut(t *testing.T) {
	t.Helper()
	f.provider.Emit(nil)
	f.waitForStatus(t, domainauth.StatusUnauthenticated)
}
