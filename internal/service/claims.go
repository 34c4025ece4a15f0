package service

import (
	"errors"
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// NewJMESPathEvaluator returns the library-backed evaluator.
func NewJMESPathEvaluator() JMESPathEvaluator { return jmespathLibEvaluator{} }

// Default claim expressions follow the standard OIDC claim names.
const (
	DefaultIDClaimExpr          = "sub"
	DefaultEmailClaimExpr       = "email"
	DefaultDisplayNameClaimExpr = "name"
)

// ClaimMapperOptions configures which claims feed each Identity field.
// Expressions are JMESPath, evaluated against the provider's raw claim
// document, so non-standard providers (AD-shaped claims, nested custom
// namespaces) can be mapped without touching the core.
type ClaimMapperOptions struct {
	Evaluator       JMESPathEvaluator // defaults to the library evaluator
	IDExpr          string            // defaults to "sub"
	EmailExpr       string            // defaults to "email"
	DisplayNameExpr string            // defaults to "name"
}

// ClaimMapper extracts an application Identity from a ProviderUser.
type ClaimMapper struct {
	eval            JMESPathEvaluator
	idExpr          string
	emailExpr       string
	displayNameExpr string
}

// NewClaimMapper validates the configured expressions and builds the
// mapper. Invalid expressions fail construction: a mapper that cannot
// evaluate its claims would silently strand every sign-in.
func NewClaimMapper(opts ClaimMapperOptions) (*ClaimMapper, error) {
	eval := opts.Evaluator
	if eval == nil {
		eval = jmespathLibEvaluator{}
	}

	m := &ClaimMapper{
		eval:            eval,
		idExpr:          defaultExpr(opts.IDExpr, DefaultIDClaimExpr),
		emailExpr:       defaultExpr(opts.EmailExpr, DefaultEmailClaimExpr),
		displayNameExpr: defaultExpr(opts.DisplayNameExpr, DefaultDisplayNameClaimExpr),
	}

	for _, expr := range []string{m.idExpr, m.emailExpr, m.displayNameExpr} {
		if err := eval.Validate(expr); err != nil {
			return nil, fmt.Errorf("invalid claim expression %q: %w", expr, err)
		}
	}

	return m, nil
}

// MapIdentity evaluates the configured expressions against the user's
// claim document. ID and email are required; display name is optional.
func (m *ClaimMapper) MapIdentity(user *ports.ProviderUser) (domainauth.Identity, error) {
	if user == nil {
		return domainauth.Identity{}, errors.New("provider user is required")
	}

	id, err := m.evalString(m.idExpr, user.Claims)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("map id claim: %w", err)
	}
	if id == "" {
		return domainauth.Identity{}, fmt.Errorf("claim %q is missing or empty", m.idExpr)
	}

	email, err := m.evalString(m.emailExpr, user.Claims)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("map email claim: %w", err)
	}
	if email == "" {
		return domainauth.Identity{}, fmt.Errorf("claim %q is missing or empty", m.emailExpr)
	}

	// Display name is best-effort; identities without one are valid.
	displayName, err := m.evalString(m.displayNameExpr, user.Claims)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("map display name claim: %w", err)
	}

	return domainauth.Identity{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
	}, nil
}

func (m *ClaimMapper) evalString(expr string, claims map[string]any) (string, error) {
	raw, err := m.eval.Evaluate(expr, claims)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("claim expression %q yielded %T, expected string", expr, raw)
	}
	return strings.TrimSpace(s), nil
}

func defaultExpr(expr, fallback string) string {
	if strings.TrimSpace(expr) == "" {
		return fallback
	}
	return expr
}
