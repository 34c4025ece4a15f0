package devauth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard-app/classboard/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		UserID:      "dev-user",
		Email:       "dev@example.com",
		DisplayName: "Dev User",
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestNewProvider_RequiresIdentity(t *testing.T) {
	_, err := NewProvider(Config{Email: "dev@example.com"})
	require.Error(t, err)

	_, err = NewProvider(Config{UserID: "dev-user"})
	require.Error(t, err)
}

func TestProvider_Begin(t *testing.T) {
	p := newTestProvider(t)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "/auth/callback"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "/auth/callback?code=dev&state="), "got %q", authURL)
	assert.Contains(t, authURL, state)
	assert.NotEmpty(t, nonce)

	// State and nonce are fresh per flow.
	_, state2, nonce2, err := p.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
	assert.NotEqual(t, nonce, nonce2)
}

func TestProvider_InteractiveSignIn(t *testing.T) {
	p := newTestProvider(t)

	user, err := p.InteractiveSignIn(context.Background(), ports.SignInRequest{Code: "dev", State: "s", Nonce: "n"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "dev-user", user.Claims["sub"])
	assert.Equal(t, "dev@example.com", user.Claims["email"])
	assert.Equal(t, "Dev User", user.Claims["name"])
}

func TestProvider_InteractiveSignIn_CallbackErrorIsDismissal(t *testing.T) {
	p := newTestProvider(t)

	user, err := p.InteractiveSignIn(context.Background(), ports.SignInRequest{CallbackError: "access_denied"})
	assert.Nil(t, user)
	assert.NoError(t, err)
}

func TestProvider_InteractiveSignIn_CopiesClaims(t *testing.T) {
	p := newTestProvider(t)

	user, err := p.InteractiveSignIn(context.Background(), ports.SignInRequest{Code: "dev"})
	require.NoError(t, err)

	// Mutating the returned claims must not affect later sign-ins.
	user.Claims["email"] = "tampered@example.com"

	again, err := p.InteractiveSignIn(context.Background(), ports.SignInRequest{Code: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", again.Claims["email"])
}

func TestProvider_SignInAndSignOutPublishEvents(t *testing.T) {
	p := newTestProvider(t)

	var mu sync.Mutex
	var events []*ports.ProviderUser
	unsubscribe, err := p.SubscribeAuthState(func(user *ports.ProviderUser) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, user)
	})
	require.NoError(t, err)
	defer unsubscribe()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(events)
	}

	// Initial signed-out state.
	require.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 5*time.Millisecond)

	_, err = p.InteractiveSignIn(context.Background(), ports.SignInRequest{Code: "dev"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return count() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.SignOut(context.Background()))
	require.Eventually(t, func() bool { return count() == 3 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Nil(t, events[0])
	require.NotNil(t, events[1])
	assert.Equal(t, "dev-user", events[1].Claims["sub"])
	assert.Nil(t, events[2])
}

func TestProvider_SignOut_IdempotentWhileSignedOut(t *testing.T) {
	p := newTestProvider(t)

	require.NoError(t, p.SignOut(context.Background()))
	require.NoError(t, p.SignOut(context.Background()))
}
