package httpx

// Route paths shared by handlers, middleware, and tests.
const (
	// EntryPath is the public entry point unauthenticated requests are
	// redirected to.
	EntryPath = "/"

	LoginPath    = "/auth/login"
	CallbackPath = "/auth/callback"
	LogoutPath   = "/auth/logout"
	SessionPath  = "/auth/session"

	DashboardPath = "/dashboard"
)

// OAuth cookie names for the redirect flow.
const (
	stateCookie = "oauth_state"
	nonceCookie = "oauth_nonce"
)

// oauthCookieMaxAge bounds how long an in-flight sign-in handshake
// stays valid. 10 minutes.
const oauthCookieMaxAge = 600
