package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the identity provider implementation.
type AuthMode string

const (
	// AuthModeOIDC uses a real OIDC/OAuth2 identity provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeDev uses the config-driven in-process provider
	// (development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oidc", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, dev)", v)
	}
}

// OIDCConfig contains OIDC/OAuth2 provider configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls the dev provider identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	UserID      string `env:"USER_ID"      envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`

	// Role backs the document-store fallback when no database is
	// available in dev mode.
	Role string `env:"ROLE" envDefault:"student"`
}

// ClaimConfig holds the JMESPath expressions that extract Identity
// fields from the provider's raw claim document. The defaults cover
// standard OIDC claims; override them for providers with non-standard
// claim shapes.
type ClaimConfig struct {
	IDExpr          string `env:"ID"           envDefault:"sub"`
	EmailExpr       string `env:"EMAIL"        envDefault:"email"`
	DisplayNameExpr string `env:"DISPLAY_NAME" envDefault:"name"`
}

// SessionConfig groups session-layer configuration.
type SessionConfig struct {
	// AllowedDomain is the single email-domain suffix permitted to hold
	// an authenticated session. Absent or malformed configuration forces
	// the session subsystem into the error state at startup; it never
	// silently accepts all domains.
	AllowedDomain string `env:"SESSION_ALLOWED_DOMAIN"`

	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC provider configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OAUTH_"`

	// Dev provider configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Claim extraction expressions.
	Claims ClaimConfig `envPrefix:"CLAIM_"`
}
