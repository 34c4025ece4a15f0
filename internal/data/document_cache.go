package data

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	domainauth "github.com/classboard-app/classboard/internal/domain/auth"
	"github.com/classboard-app/classboard/internal/ports"
)

// DefaultDocumentTTL is how long cached role/profile documents stay
// fresh. Role changes made in the dashboard take at most this long to
// reach the session layer.
const DefaultDocumentTTL = 5 * time.Minute

const (
	roleKeyPrefix    = "doc:role:"
	profileKeyPrefix = "doc:profile:"
)

// CachedDocumentStoreOptions groups dependencies for the read-through
// document cache.
type CachedDocumentStoreOptions struct {
	Source ports.DocumentStore
	Cache  ports.CacheRepository
	TTL    time.Duration // defaults to DefaultDocumentTTL
	Logger *slog.Logger  // optional
}

// CachedDocumentStore fronts a DocumentStore with a byte cache. Cache
// failures degrade to direct lookups; they never fail a request.
type CachedDocumentStore struct {
	source ports.DocumentStore
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDocumentStore constructs the read-through decorator.
func NewCachedDocumentStore(opts CachedDocumentStoreOptions) *CachedDocumentStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultDocumentTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDocumentStore{
		source: opts.Source,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetRole resolves the identity's role, preferring the cache.
func (s *CachedDocumentStore) GetRole(ctx context.Context, identityID string) (domainauth.Role, error) {
	key := roleKeyPrefix + identityID

	if cached, ok := s.lookup(ctx, key); ok {
		return domainauth.ParseRole(string(cached)), nil
	}

	role, err := s.source.GetRole(ctx, identityID)
	if err != nil {
		return role, err
	}
	if role == domainauth.RoleUnrecognized {
		// An unrecognized role usually means the document does not exist
		// yet. Caching it would pin a freshly provisioned user to the
		// not-configured page for the TTL.
		return role, nil
	}

	s.store(ctx, key, []byte(role))
	return role, nil
}

// GetProfile resolves the identity's profile document, preferring the
// cache.
func (s *CachedDocumentStore) GetProfile(ctx context.Context, identityID string) (*domainauth.Profile, error) {
	key := profileKeyPrefix + identityID

	if cached, ok := s.lookup(ctx, key); ok {
		var profile domainauth.Profile
		if err := json.Unmarshal(cached, &profile); err == nil {
			return &profile, nil
		}
		// Corrupt cache entry: drop it and fall through to the source.
		if _, delErr := s.cache.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "drop corrupt cached profile failed", "error", delErr)
		}
	}

	profile, err := s.source.GetProfile(ctx, identityID)
	if err != nil {
		// NotFound is not cached: an admin may create the document at any
		// moment and the next guard pass should see it.
		return nil, err
	}

	if data, marshalErr := json.Marshal(profile); marshalErr == nil {
		s.store(ctx, key, data)
	}
	return profile, nil
}

func (s *CachedDocumentStore) lookup(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "document cache read failed", "key", key, "error", err)
		return nil, false
	}
	return cached, cached != nil
}

func (s *CachedDocumentStore) store(ctx context.Context, key string, value []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "document cache write failed", "key", key, "error", err)
	}
}

var _ ports.DocumentStore = (*CachedDocumentStore)(nil)
