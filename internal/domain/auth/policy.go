package auth

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// AllowListPolicy restricts authenticated sessions to a single
// organizational email domain. Every identity admitted into
// StatusAuthenticated satisfies Allows(identity.Email).
type AllowListPolicy struct {
	domain string
}

// NewAllowListPolicy validates the configured domain suffix and returns
// the policy. A missing or malformed domain is a configuration error:
// the subsystem must fail closed rather than accept all domains.
func NewAllowListPolicy(domain string) (AllowListPolicy, *AuthError) {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return AllowListPolicy{}, &AuthError{
			Kind:    KindConfigurationError,
			Message: "allow-list domain is not configured",
		}
	}
	if strings.ContainsAny(d, "@/ ") {
		return AllowListPolicy{}, &AuthError{
			Kind:    KindConfigurationError,
			Message: fmt.Sprintf("allow-list domain %q is malformed", domain),
		}
	}
	// A bare public suffix ("com", "co.uk") would allow-list effectively
	// everyone on that suffix. Require a registrable domain.
	if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
		return AllowListPolicy{}, &AuthError{
			Kind:    KindConfigurationError,
			Message: fmt.Sprintf("allow-list domain %q is not a registrable domain", domain),
		}
	}
	return AllowListPolicy{domain: d}, nil
}

// Domain returns the configured domain suffix.
func (p AllowListPolicy) Domain() string { return p.domain }

// Allows reports whether the email belongs to the allow-listed domain.
// The match is a case-insensitive suffix check on "@" + domain.
func (p AllowListPolicy) Allows(email string) bool {
	if p.domain == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+p.domain)
}

// Rejection builds the DomainNotAllowed error surfaced when an identity
// fails the policy check. The message names the required domain.
func (p AllowListPolicy) Rejection(email string) *AuthError {
	return &AuthError{
		Kind:    KindDomainNotAllowed,
		Message: fmt.Sprintf("account %s is not in the allowed domain %s", email, p.domain),
	}
}
