package data

import (
	"context"
	"strings"
	"time"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	apperrors "github.com/classboard-app/classboard/internal/errors"
	"github.com/classboard-app/classboard/internal/ports"
)

// StaticDocumentStore serves a single fixed role/profile document from
// configuration. It backs dev mode when no database is available, so
// the dashboard still dispatches to a real view for the dev identity.
type StaticDocumentStore struct {
	identityID  string
	role        domainauth.Role
	displayName string
	updatedAt   time.Time
}

// NewStaticDocumentStore creates a store holding one document for the
// given identity. Unknown role strings resolve to RoleUnrecognized, so
// a misconfigured dev role lands on the not-configured fallback rather
// than an error.
func NewStaticDocumentStore(identityID, role, displayName string) *StaticDocumentStore {
	return &StaticDocumentStore{
		identityID:  identityID,
		role:        domainauth.ParseRole(role),
		displayName: displayName,
		updatedAt:   time.Now().UTC(),
	}
}

func (s *StaticDocumentStore) GetRole(_ context.Context, identityID string) (domainauth.Role, error) {
	if strings.TrimSpace(identityID) == "" {
		return domainauth.RoleUnrecognized, apperrors.Validation("identity id is required")
	}
	if identityID != s.identityID {
		return domainauth.RoleUnrecognized, nil
	}
	return s.role, nil
}

func (s *StaticDocumentStore) GetProfile(_ context.Context, identityID string) (*domainauth.Profile, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, apperrors.Validation("identity id is required")
	}
	if identityID != s.identityID {
		return nil, apperrors.NotFoundf("no profile document for identity %s", identityID)
	}
	return &domainauth.Profile{
		IdentityID:  s.identityID,
		Role:        s.role,
		DisplayName: s.displayName,
		UpdatedAt:   s.updatedAt,
	}, nil
}

var _ ports.DocumentStore = (*StaticDocumentStore)(nil)
